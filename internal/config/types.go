package config

// File 表示 xcred.yaml 的配置结构。
// 约束：配置优先级为 CLI > ENV > Config。
type File struct {
	Profiles map[string]Profile `yaml:"profiles"`
	MCP      MCPConfig          `yaml:"mcp"`
}

// Backend 名称
const (
	BackendKeyring         = "keyring"
	BackendVault           = "vault"
	BackendKeyringVault    = "keyring+vault" // keyring 失败时回退到 vault
	BackendMemory          = "memory"
	DefaultBackend         = BackendKeyring
	DefaultService         = "xcred"
	DefaultVaultDriver     = "sqlite"
	DefaultMCPHTTPAddr     = "127.0.0.1:8787"
	defaultVaultPathSuffix = ".local/share/xcred/vault.db"
)

// Backends 返回所有合法的 backend 名称。
func Backends() []string {
	return []string{BackendKeyring, BackendVault, BackendKeyringVault, BackendMemory}
}

// UsesVault 判断 backend 是否需要 vault 配置。
func UsesVault(backend string) bool {
	return backend == BackendVault || backend == BackendKeyringVault
}

type Profile struct {
	Description string `yaml:"description"`
	Format      string `yaml:"format"`
	LogLevel    string `yaml:"log_level"`

	// 凭据存储
	Service string      `yaml:"service"` // 命名空间
	Backend string      `yaml:"backend"` // keyring | vault | keyring+vault | memory
	Vault   VaultConfig `yaml:"vault"`
}

type VaultConfig struct {
	Driver string `yaml:"driver"` // sqlite | pg | mysql
	Path   string `yaml:"path"`   // sqlite 文件路径，支持 ~/
	DSN    string `yaml:"dsn"`    // pg/mysql 连接串，支持 keyring:/env: 引用

	// MasterKey 支持 keyring:xxx / env:NAME 引用；解码后须为 32 字节（base64 或 hex）。
	MasterKey         string `yaml:"master_key"`
	AllowPlaintextKey bool   `yaml:"allow_plaintext_key"` // 极不推荐
}

type MCPConfig struct {
	Transport string        `yaml:"transport"`
	HTTP      MCPHTTPConfig `yaml:"http"`
}

type MCPHTTPConfig struct {
	Addr                string `yaml:"addr"`
	AuthToken           string `yaml:"auth_token"` // 支持 keyring:/env: 引用
	AllowPlaintextToken bool   `yaml:"allow_plaintext_token"`
}

type Resolved struct {
	ConfigPath  string
	ProfileName string
	Format      string
	LogLevel    string
	Service     string
	Backend     string
	Profile     Profile // 完整 profile（vault 路径已展开）
	MCP         MCPConfig
}

type Options struct {
	// ConfigPath: 若非空，则只读取该文件（不存在报错）。
	ConfigPath string

	// CLI
	CLIProfile     string
	CLIProfileSet  bool
	CLIFormat      string
	CLIFormatSet   bool
	CLIBackend     string
	CLIBackendSet  bool
	CLIService     string
	CLIServiceSet  bool
	CLILogLevel    string
	CLILogLevelSet bool

	// ENV（由调用方注入，便于测试；见 LoadEnv）
	Env Env

	// HomeDir 用于默认路径计算（为空则自动探测）。
	HomeDir string
	// WorkDir 用于默认路径（为空则使用进程当前工作目录）。
	WorkDir string
}
