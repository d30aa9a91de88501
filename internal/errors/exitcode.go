package errors

// ExitCode 是进程退出码（稳定契约）。
type ExitCode int

const (
	ExitOK ExitCode = 0
	// 2: 参数/配置错误
	ExitConfig ExitCode = 2
	// 3: 凭据存储不可用或操作失败
	ExitStore ExitCode = 3
	// 4: 记录不存在或无法解码
	ExitNotFound ExitCode = 4
	// 10: 内部错误
	ExitInternal ExitCode = 10
)

func ExitCodeFor(code Code) ExitCode {
	switch code {
	case CodeCfgNotFound, CodeCfgInvalid:
		return ExitConfig
	case CodeStoreUnavailable, CodeStoreFailed:
		return ExitStore
	case CodeSecretNotFound, CodeDecodeFailed:
		return ExitNotFound
	case CodeInternal:
		fallthrough
	default:
		return ExitInternal
	}
}
