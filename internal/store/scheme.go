package store

var (
	bDrafts      = []byte("drafts")       // slug -> draft JSON
	bIdxImported = []byte("idx_imported") // invTime + 0x00 + slug -> 1
	bIdxKey      = []byte("idx_key")      // slug -> its idx_imported key
)
