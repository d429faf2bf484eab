package domain

// ExportedFile is one entry of a deployable file tree. Directories carry no
// content and are excluded from size accounting. ExportedFile is transient
// and never persisted; every deploy produces the tree fresh.
type ExportedFile struct {
	Path    string `json:"path"`
	Content string `json:"content,omitempty"`
	IsDir   bool   `json:"is_dir,omitempty"`
}
