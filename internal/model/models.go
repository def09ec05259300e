// Package model declares the records stored in a booru database.
package model

import (
	"database/sql"
	"fmt"

	"booru-go/internal/entity"
	"booru-go/internal/result"
)

// Post ratings, shared by posts and tags.
const (
	RatingUnrated      int64 = 0
	RatingGeneral      int64 = 1
	RatingSensitive    int64 = 2
	RatingQuestionable int64 = 3
	RatingExplicit     int64 = 4
)

// Post flags.
const (
	PostFlagDeleted int64 = 1 << 0
)

// Tag flags.
const (
	TagFlagNew      int64 = 1 << 0
	TagFlagObsolete int64 = 1 << 1
)

// TagImplication flags.
const (
	ImplicationFlagRemove int64 = 1 << 0
)

// Seeded lookup rows.
const (
	PostTypeImage     int64 = 1
	PostTypeAnimation int64 = 2
	PostTypeArchive   int64 = 3
	PostTypeVideo     int64 = 4

	TagTypeNormal int64 = 1

	SiteLocalFile int64 = 1
)

// Post is a media item identified by the MD5 of its content.
type Post struct {
	entity.Base
	MD5Sum           [16]byte
	Flags            int64
	PostTypeID       int64
	MimeType         string
	Rating           int64
	Score            int64
	Height           int64
	Width            int64
	AddedTime        int64
	UpdatedTime      int64
	OriginalFileName string
}

// NewPost returns a transient image post.
func NewPost() *Post {
	return &Post{Base: entity.NewBase(), PostTypeID: PostTypeImage}
}

func (*Post) Table() string { return "Posts" }

func (p *Post) IterateProperties(v entity.Visitor) error {
	f := entity.Walk(v)
	f.Key("Id", &p.ID)
	f.Field("MD5Sum", &p.MD5Sum)
	f.Field("Flags", &p.Flags)
	f.Field("PostTypeId", &p.PostTypeID)
	f.Field("MimeType", &p.MimeType)
	f.Field("Rating", &p.Rating)
	f.Field("Score", &p.Score)
	f.Field("Height", &p.Height)
	f.Field("Width", &p.Width)
	f.Field("AddedTime", &p.AddedTime)
	f.Field("UpdatedTime", &p.UpdatedTime)
	f.Field("OriginalFileName", &p.OriginalFileName)
	return f.Err()
}

func (p *Post) Validate() error {
	if p.Rating < RatingUnrated || p.Rating > RatingExplicit {
		return fmt.Errorf("post rating %d: %w", p.Rating, result.InvalidArgument)
	}
	return nil
}

func (p *Post) String() string { return entity.String(p) }

// PostType classifies posts: image, animation, archive, video.
type PostType struct {
	entity.Base
	Name        string
	Description string
}

func NewPostType() *PostType { return &PostType{Base: entity.NewBase()} }

func (*PostType) Table() string { return "PostTypes" }

func (t *PostType) IterateProperties(v entity.Visitor) error {
	f := entity.Walk(v)
	f.Key("Id", &t.ID)
	f.Field("Name", &t.Name)
	f.Field("Description", &t.Description)
	return f.Err()
}

func (t *PostType) String() string { return entity.String(t) }

// PostFile is a location of a post's content on a site. Unique per
// (site, path).
type PostFile struct {
	entity.Base
	PostID int64
	SiteID int64
	Path   string
}

// NewPostFile returns a transient file on the local file site.
func NewPostFile() *PostFile {
	return &PostFile{Base: entity.NewBase(), PostID: entity.InvalidID, SiteID: SiteLocalFile}
}

func (*PostFile) Table() string { return "PostFiles" }

func (pf *PostFile) IterateProperties(v entity.Visitor) error {
	f := entity.Walk(v)
	f.Key("Id", &pf.ID)
	f.Field("PostId", &pf.PostID)
	f.Field("SiteId", &pf.SiteID)
	f.Field("Path", &pf.Path)
	return f.Err()
}

func (pf *PostFile) String() string { return entity.String(pf) }

// PostSiteID records the id a post has on another site.
type PostSiteID struct {
	entity.Base
	PostID     int64
	SiteID     int64
	SitePostID int64
}

func NewPostSiteID() *PostSiteID {
	return &PostSiteID{Base: entity.NewBase(), PostID: entity.InvalidID, SiteID: entity.InvalidID, SitePostID: entity.InvalidID}
}

func (*PostSiteID) Table() string { return "PostSiteIds" }

func (ps *PostSiteID) IterateProperties(v entity.Visitor) error {
	f := entity.Walk(v)
	f.Key("Id", &ps.ID)
	f.Field("PostId", &ps.PostID)
	f.Field("SiteId", &ps.SiteID)
	f.Field("SitePostId", &ps.SitePostID)
	return f.Err()
}

func (ps *PostSiteID) String() string { return entity.String(ps) }

// Tag labels posts. A tag with RedirectID set is an alias of another tag.
type Tag struct {
	entity.Base
	Name        string
	Description string
	TagTypeID   int64
	Rating      int64
	RedirectID  sql.Null[int64]
	Flags       int64
}

// NewTag returns a transient normal tag flagged as new.
func NewTag() *Tag {
	return &Tag{Base: entity.NewBase(), TagTypeID: TagTypeNormal, Flags: TagFlagNew}
}

func (*Tag) Table() string { return "Tags" }

func (t *Tag) IterateProperties(v entity.Visitor) error {
	f := entity.Walk(v)
	f.Key("Id", &t.ID)
	f.Field("Name", &t.Name)
	f.Field("Description", &t.Description)
	f.Field("TagTypeId", &t.TagTypeID)
	f.Field("Rating", &t.Rating)
	f.Field("RedirectId", &t.RedirectID)
	f.Field("Flags", &t.Flags)
	return f.Err()
}

func (t *Tag) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("tag name: %w", result.ArgumentTooShort)
	}
	if t.RedirectID.Valid && t.ID != entity.InvalidID && t.RedirectID.V == t.ID {
		return fmt.Errorf("tag %s redirects to itself: %w", t.Name, result.InvalidArgument)
	}
	return nil
}

func (t *Tag) String() string { return entity.String(t) }

// TagType groups tags and gives them a display color.
type TagType struct {
	entity.Base
	Name        string
	Description string
	Color       int64
}

func NewTagType() *TagType {
	return &TagType{Base: entity.NewBase(), Color: 0xFFFFFFFF}
}

func (*TagType) Table() string { return "TagTypes" }

func (t *TagType) IterateProperties(v entity.Visitor) error {
	f := entity.Walk(v)
	f.Key("Id", &t.ID)
	f.Field("Name", &t.Name)
	f.Field("Description", &t.Description)
	f.Field("Color", &t.Color)
	return f.Err()
}

func (t *TagType) String() string { return entity.String(t) }

// TagImplication adds (or with ImplicationFlagRemove removes) ImpliedTagID
// whenever TagID is added to a post.
type TagImplication struct {
	entity.Base
	TagID        int64
	ImpliedTagID int64
	Flags        int64
}

func NewTagImplication() *TagImplication {
	return &TagImplication{Base: entity.NewBase(), TagID: entity.InvalidID, ImpliedTagID: entity.InvalidID}
}

func (*TagImplication) Table() string { return "TagImplications" }

func (ti *TagImplication) IterateProperties(v entity.Visitor) error {
	f := entity.Walk(v)
	f.Key("Id", &ti.ID)
	f.Field("TagId", &ti.TagID)
	f.Field("ImpliedTagId", &ti.ImpliedTagID)
	f.Field("Flags", &ti.Flags)
	return f.Err()
}

// Validate rejects a tag implying itself.
func (ti *TagImplication) Validate() error {
	if ti.TagID == ti.ImpliedTagID {
		return fmt.Errorf("tag %d implies itself: %w", ti.TagID, result.InvalidArgument)
	}
	return nil
}

// Removes reports whether the implication removes the implied tag.
func (ti *TagImplication) Removes() bool { return ti.Flags&ImplicationFlagRemove != 0 }

func (ti *TagImplication) String() string { return entity.String(ti) }

// PostTag associates a tag with a post. Unique per (post, tag).
type PostTag struct {
	entity.Base
	PostID int64
	TagID  int64
}

func NewPostTag(postID, tagID int64) *PostTag {
	return &PostTag{Base: entity.NewBase(), PostID: postID, TagID: tagID}
}

func (*PostTag) Table() string { return "PostTags" }

func (pt *PostTag) IterateProperties(v entity.Visitor) error {
	f := entity.Walk(v)
	f.Key("Id", &pt.ID)
	f.Field("PostId", &pt.PostID)
	f.Field("TagId", &pt.TagID)
	return f.Err()
}

func (pt *PostTag) String() string { return entity.String(pt) }

// Site is a source posts are imported from.
type Site struct {
	entity.Base
	Name        string
	Description string
}

func NewSite() *Site { return &Site{Base: entity.NewBase()} }

func (*Site) Table() string { return "Sites" }

func (s *Site) IterateProperties(v entity.Visitor) error {
	f := entity.Walk(v)
	f.Key("Id", &s.ID)
	f.Field("Name", &s.Name)
	f.Field("Description", &s.Description)
	return f.Err()
}

func (s *Site) String() string { return entity.String(s) }
