package editor

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/inkpress/internal/storage"
)

// imagePrefix 是编辑器图片在对象存储中的目录。
const imagePrefix = "public"

// StoreImage writes image data to the object store under a
// millisecond-timestamp name. When an object with that name already
// exists its public URL is reused and no second upload is issued.
func StoreImage(store storage.Store, now func() time.Time, filename string, data []byte) (url string, reused bool, err error) {
	ext := strings.ToLower(path.Ext(filename))
	name := fmt.Sprintf("%d%s", now().UnixMilli(), ext)
	objectPath := imagePrefix + "/" + name

	objects, err := store.List(imagePrefix)
	if err != nil {
		return "", false, err
	}
	for _, obj := range objects {
		if obj.Name == name {
			return store.PublicURL(objectPath), true, nil
		}
	}

	if err := store.Upload(objectPath, data); err != nil {
		if errors.Is(err, storage.ErrObjectExists) {
			// 列表与写入之间出现同名对象，同样按复用处理
			return store.PublicURL(objectPath), true, nil
		}
		return "", false, err
	}

	return store.PublicURL(objectPath), false, nil
}
