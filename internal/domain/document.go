package domain

// DocumentMetadata is the information dictionary of an open document.
type DocumentMetadata struct {
	Title      string `json:"title,omitempty"`
	Author     string `json:"author,omitempty"`
	Subject    string `json:"subject,omitempty"`
	Creator    string `json:"creator,omitempty"`
	Producer   string `json:"producer,omitempty"`
	Format     string `json:"format,omitempty"`
	Encryption string `json:"encryption,omitempty"`
}

// Encrypted reports whether the document uses any encryption scheme.
func (m DocumentMetadata) Encrypted() bool {
	return m.Encryption != "" && m.Encryption != "None"
}
