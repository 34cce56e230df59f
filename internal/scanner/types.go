package scanner

import (
	"os"

	"github.com/ivoronin/repolizer/internal/language"
	"github.com/ivoronin/repolizer/internal/types"
)

// newFileInfo creates FileInfo from os.FileInfo and path.
func newFileInfo(path, rel string, lang language.Language, info os.FileInfo) *types.FileInfo {
	return &types.FileInfo{
		Path:     path,
		RelPath:  rel,
		Language: lang,
		Size:     info.Size(),
		ModTime:  info.ModTime(),
		Ino:      inode(info),
	}
}
