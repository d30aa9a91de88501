package output

import "github.com/zx06/xcred/internal/errors"

// SchemaVersion 是输出信封的版本号（CLI 与 MCP 共用）。
const SchemaVersion = 1

type ErrorObject struct {
	Code    errors.Code    `json:"code" yaml:"code"`
	Message string         `json:"message" yaml:"message"`
	Details map[string]any `json:"details,omitempty" yaml:"details,omitempty"`
}

// Envelope 包裹每一次凭据操作的结果；data 中只出现状态与指纹，不出现密钥材料。
type Envelope struct {
	OK            bool         `json:"ok" yaml:"ok"`
	SchemaVersion int          `json:"schema_version" yaml:"schema_version"`
	Error         *ErrorObject `json:"error,omitempty" yaml:"error,omitempty"`
	Data          any          `json:"data,omitempty" yaml:"data,omitempty"`
}

// OKEnvelope wraps a successful result.
func OKEnvelope(data any) Envelope {
	return Envelope{OK: true, SchemaVersion: SchemaVersion, Data: data}
}

// ErrorEnvelope wraps xe. A nil xe becomes an internal error.
func ErrorEnvelope(xe *errors.XError) Envelope {
	if xe == nil {
		xe = errors.New(errors.CodeInternal, "unknown error", nil)
	}
	return Envelope{
		OK:            false,
		SchemaVersion: SchemaVersion,
		Error:         &ErrorObject{Code: xe.Code, Message: xe.Message, Details: xe.Details},
	}
}
