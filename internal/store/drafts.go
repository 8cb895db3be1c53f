package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"inkpress/internal/domain/content"
	domainerr "inkpress/internal/domain/errors"
)

// Summary is the list view of a stored draft.
type Summary struct {
	Slug       string             `json:"slug"`
	Title      string             `json:"title"`
	SourceType content.SourceType `json:"sourceType"`
	FileName   string             `json:"fileName"`
	ImportedAt time.Time          `json:"importedAt"`
	Warnings   int                `json:"warnings"`
}

func summarize(d content.Draft) Summary {
	return Summary{
		Slug:       d.Meta.Slug,
		Title:      d.Meta.Title,
		SourceType: d.Source.Type,
		FileName:   d.Source.FileName,
		ImportedAt: d.ImportedAt,
		Warnings:   len(d.Warnings),
	}
}

type ListOptions struct {
	Page int
	Size int // <= 0 lists everything
}

func normalizePaging(page, size int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if size > 500 {
		size = 500
	}
	return page, size
}

// Put stores d under its slug. A draft imported earlier from the same file
// is replaced; one from a different file fails with ErrSlugTaken.
func (s *Store) Put(d content.Draft) error {
	slug := strings.TrimSpace(d.Meta.Slug)
	if slug == "" {
		return errors.New("store: draft has no slug")
	}
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		idx := tx.Bucket(bIdxImported)
		keys := tx.Bucket(bIdxKey)

		if v := tx.Bucket(bDrafts).Get([]byte(slug)); v != nil {
			var prev content.Draft
			if err := json.Unmarshal(v, &prev); err != nil {
				return err
			}
			if prev.Source.FileName != d.Source.FileName {
				return fmt.Errorf("%w: %q already holds the draft from %s", domainerr.ErrSlugTaken, slug, prev.Source.FileName)
			}
		}

		if old := keys.Get([]byte(slug)); old != nil {
			if err := idx.Delete(old); err != nil {
				return err
			}
		}
		key := makeTimeSlugKey(d.ImportedAt.UnixNano(), slug)
		if err := idx.Put(key, []byte{1}); err != nil {
			return err
		}
		if err := keys.Put([]byte(slug), key); err != nil {
			return err
		}
		return tx.Bucket(bDrafts).Put([]byte(slug), data)
	})
}

func (s *Store) Get(slug string) (content.Draft, error) {
	slug = strings.TrimSpace(slug)
	var d content.Draft
	if slug == "" {
		return d, ErrNotFound
	}
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bDrafts).Get([]byte(slug))
		if v == nil {
			return ErrNotFound
		}
		return json.Unmarshal(v, &d)
	})
	return d, err
}

// List returns stored drafts, most recently imported first.
func (s *Store) List(opt ListOptions) ([]Summary, error) {
	opt.Page, opt.Size = normalizePaging(opt.Page, opt.Size)

	out := []Summary{}
	err := s.db.View(func(tx *bolt.Tx) error {
		idx := tx.Bucket(bIdxImported)
		drafts := tx.Bucket(bDrafts)

		skip := 0
		if opt.Size > 0 {
			skip = (opt.Page - 1) * opt.Size
		}
		cur := idx.Cursor()
		for k, _ := cur.First(); k != nil; k, _ = cur.Next() {
			slug := slugFromTimeSlugKey(k)
			if slug == "" {
				continue
			}
			v := drafts.Get([]byte(slug))
			if v == nil {
				continue
			}
			var d content.Draft
			if err := json.Unmarshal(v, &d); err != nil {
				continue
			}
			if skip > 0 {
				skip--
				continue
			}
			out = append(out, summarize(d))
			if opt.Size > 0 && len(out) >= opt.Size {
				break
			}
		}
		return nil
	})
	return out, err
}

func (s *Store) Delete(slug string) error {
	slug = strings.TrimSpace(slug)
	return s.db.Update(func(tx *bolt.Tx) error {
		drafts := tx.Bucket(bDrafts)
		if drafts.Get([]byte(slug)) == nil {
			return ErrNotFound
		}
		keys := tx.Bucket(bIdxKey)
		if old := keys.Get([]byte(slug)); old != nil {
			if err := tx.Bucket(bIdxImported).Delete(old); err != nil {
				return err
			}
		}
		if err := keys.Delete([]byte(slug)); err != nil {
			return err
		}
		return drafts.Delete([]byte(slug))
	})
}
