package audit

// Entry is one line in the hash-chained JSONL decision log. All fields
// are scalars (no map[string]any) to guarantee deterministic
// json.Marshal field order for reproducible hashing.
type Entry struct {
	Timestamp  string `json:"ts"`
	Mechanism  string `json:"mechanism"`
	Script     string `json:"script"`
	RunAsUID   uint32 `json:"run_as_uid"`
	RunAsGID   uint32 `json:"run_as_gid"`
	Executed   bool   `json:"executed"`
	ExitStatus int    `json:"exit_status"`
	Decision   string `json:"decision"`
	Reason     string `json:"reason"`
	ConfigHash string `json:"config_hash"`
	PrevHash   string `json:"prev_hash"`
}
