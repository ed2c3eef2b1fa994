package pdf

import (
	"strings"
)

// Info is the document information dictionary of a PDF
type Info struct {
	Title    string
	Author   string
	Subject  string
	Producer string
	Created  string
}

// Empty reports whether no entry was found
func (i Info) Empty() bool {
	return i == Info{}
}

// Info reads the trailer's information dictionary. Missing or malformed
// entries are left empty.
func (r *Reader) Info() (info Info) {
	defer func() {
		if recover() != nil {
			info = Info{}
		}
	}()

	trailer := r.r.Trailer()
	if trailer.IsNull() {
		return info
	}
	dict := trailer.Key("Info")
	if dict.IsNull() {
		return info
	}

	get := func(key string) string {
		v := dict.Key(key)
		if v.IsNull() {
			return ""
		}
		return strings.TrimSpace(v.Text())
	}
	info.Title = get("Title")
	info.Author = get("Author")
	info.Subject = get("Subject")
	info.Producer = get("Producer")
	info.Created = get("CreationDate")
	return info
}
