package output

// SecretStatus 是 secret exists/delete/set 的结果；从不包含值。
type SecretStatus struct {
	Service string `json:"service" yaml:"service"`
	Key     string `json:"key" yaml:"key"`
	Exists  bool   `json:"exists" yaml:"exists"`
	Changed bool   `json:"changed" yaml:"changed"`
}

func (s SecretStatus) ToTableData() ([]string, []map[string]any, bool) {
	return []string{"service", "key", "exists", "changed"}, []map[string]any{{
		"service": s.Service, "key": s.Key, "exists": s.Exists, "changed": s.Changed,
	}}, true
}

// SecretValue 是 secret get / token get 的结果。
// 非 UTF-8 的值以 base64 输出，Encoding 标明编码。
type SecretValue struct {
	Service  string `json:"service" yaml:"service"`
	Key      string `json:"key" yaml:"key"`
	Value    string `json:"value" yaml:"value"`
	Encoding string `json:"encoding" yaml:"encoding"`
}

const (
	EncodingUTF8   = "utf8"
	EncodingBase64 = "base64"
)

func (s SecretValue) ToTableData() ([]string, []map[string]any, bool) {
	return []string{"key", "value"}, []map[string]any{{"key": s.Key, "value": s.Value}}, true
}

// KeyInfo 描述一个对称密钥；只暴露指纹。
type KeyInfo struct {
	Service     string `json:"service" yaml:"service"`
	Name        string `json:"name" yaml:"name"`
	Fingerprint string `json:"fingerprint" yaml:"fingerprint"`
	Generated   bool   `json:"generated" yaml:"generated"`
	Persisted   bool   `json:"persisted" yaml:"persisted"`
}

func (k KeyInfo) ToTableData() ([]string, []map[string]any, bool) {
	return []string{"name", "fingerprint", "generated", "persisted"}, []map[string]any{{
		"name": k.Name, "fingerprint": k.Fingerprint, "generated": k.Generated, "persisted": k.Persisted,
	}}, true
}

// KeyList 是 secret list 的结果。
type KeyList struct {
	Service string   `json:"service" yaml:"service"`
	Keys    []string `json:"keys" yaml:"keys"`
}

func (l KeyList) ToTableData() ([]string, []map[string]any, bool) {
	rows := make([]map[string]any, 0, len(l.Keys))
	for _, k := range l.Keys {
		rows = append(rows, map[string]any{"key": k})
	}
	return []string{"key"}, rows, true
}
