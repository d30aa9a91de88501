package errors

// Code 是稳定错误码（字符串），供 AI/agent 与程序判断。
// 只增不改、不复用旧含义。
type Code string

const (
	// Config / args
	CodeCfgNotFound    Code = "XCRED_CFG_NOT_FOUND"
	CodeCfgInvalid     Code = "XCRED_CFG_INVALID"
	CodeSecretNotFound Code = "XCRED_SECRET_NOT_FOUND"

	// Credential store
	CodeStoreUnavailable Code = "XCRED_STORE_UNAVAILABLE"
	CodeStoreFailed      Code = "XCRED_STORE_FAILED"
	CodeDecodeFailed     Code = "XCRED_DECODE_FAILED"

	// Internal
	CodeInternal Code = "XCRED_INTERNAL"
)

func AllCodes() []Code {
	return []Code{
		CodeCfgNotFound,
		CodeCfgInvalid,
		CodeSecretNotFound,
		CodeStoreUnavailable,
		CodeStoreFailed,
		CodeDecodeFailed,
		CodeInternal,
	}
}
