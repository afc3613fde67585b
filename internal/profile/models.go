// Package profile models the document store that holds admin and student
// profiles: collections addressed by path, documents addressed by key.
package profile

import (
	"sort"
)

// Collection paths.
const (
	AdminsCollection        = "Admins"
	StudentsCollection      = "Students"
	StudentEmailsCollection = "student-emails"

	courseCollectionPrefix = "Students-list/Course/"
)

// CourseCollection returns the per-course student collection path.
func CourseCollection(course string) string {
	return courseCollectionPrefix + course
}

// Fields is a flat document body.
type Fields map[string]string

// Clone returns a copy safe to hand across store boundaries.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Document is a stored document with its address.
type Document struct {
	Path   string
	Key    string
	Fields Fields
}

// SortByKey orders documents by key so query results are deterministic.
func SortByKey(docs []Document) {
	sort.Slice(docs, func(i, j int) bool { return docs[i].Key < docs[j].Key })
}
