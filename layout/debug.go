package layout

import (
	"encoding/json"
	"io"
)

// EncodeDebugJSON 写出带缩进的 JSON：页面、定位后的节点树、glue 设置与诊断。
func EncodeDebugJSON(w io.Writer, res *Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
