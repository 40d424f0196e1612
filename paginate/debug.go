package paginate

import (
	"encoding/json"
	"os"
)

// WriteDebugJSON 将分页结果输出为 JSON，便于调试或可视化。
func WriteDebugJSON(dl *DocumentLayout, path string) error {
	if dl == nil {
		return nil
	}
	data, err := json.MarshalIndent(dl, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
