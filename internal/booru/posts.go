package booru

import (
	"booru-go/internal/entity"
	"booru-go/internal/model"
	"booru-go/internal/query"
)

// CreatePost inserts p. A zero AddedTime is set to now.
func (b *Booru) CreatePost(p *model.Post) error {
	now := b.clock.Now().Unix()
	if p.AddedTime == 0 {
		p.AddedTime = now
	}
	if p.UpdatedTime == 0 {
		p.UpdatedTime = p.AddedTime
	}
	return entity.Create(b.db, p)
}

// GetPost loads a post by id. NotFound if there is none.
func (b *Booru) GetPost(id int64) (*model.Post, error) {
	return entity.GetByID[model.Post](b.db, id)
}

// GetPostByMD5 finds the post with the given content digest.
func (b *Booru) GetPostByMD5(sum [16]byte) (*model.Post, error) {
	return entity.Get[model.Post](b.db, "MD5Sum", sum[:])
}

// GetPosts lists all posts ordered by id.
func (b *Booru) GetPosts() ([]*model.Post, error) {
	return entity.GetAll[model.Post](b.db)
}

// UpdatePost rewrites p and stamps its UpdatedTime.
func (b *Booru) UpdatePost(p *model.Post) error {
	p.UpdatedTime = b.clock.Now().Unix()
	return entity.Update(b.db, p)
}

// DeletePost deletes the post together with its files, site ids and tags.
func (b *Booru) DeletePost(p *model.Post) error {
	return entity.Delete(b.db, p)
}

// CreatePostType inserts the post type and assigns its id. A duplicate is AlreadyExists.
func (b *Booru) CreatePostType(t *model.PostType) error {
	return entity.Create(b.db, t)
}

// GetPostType loads a post type by id. NotFound if there is none.
func (b *Booru) GetPostType(id int64) (*model.PostType, error) {
	return entity.GetByID[model.PostType](b.db, id)
}

// GetPostTypeByName finds a post type by its unique name. NotFound if there is none.
func (b *Booru) GetPostTypeByName(name string) (*model.PostType, error) {
	return entity.Get[model.PostType](b.db, "Name", name)
}

// GetPostTypes lists all post types ordered by id.
func (b *Booru) GetPostTypes() ([]*model.PostType, error) {
	return entity.GetAll[model.PostType](b.db)
}

// UpdatePostType rewrites every column of the post type.
func (b *Booru) UpdatePostType(t *model.PostType) error {
	return entity.Update(b.db, t)
}

// DeletePostType deletes the post type by id.
func (b *Booru) DeletePostType(t *model.PostType) error {
	return entity.Delete(b.db, t)
}

// CreatePostFile inserts the post file and assigns its id. A duplicate is AlreadyExists.
func (b *Booru) CreatePostFile(pf *model.PostFile) error {
	return entity.Create(b.db, pf)
}

// GetPostFile loads a post file by id. NotFound if there is none.
func (b *Booru) GetPostFile(id int64) (*model.PostFile, error) {
	return entity.GetByID[model.PostFile](b.db, id)
}

// GetPostFileByPath finds the file stored at path on site.
func (b *Booru) GetPostFileByPath(siteID int64, path string) (*model.PostFile, error) {
	q := query.Select("PostFiles").Key("SiteId").Key("Path")
	return entity.Row[model.PostFile](b.db, q.String(), entity.Params{"SiteId": siteID, "Path": path})
}

// GetFilesForPost lists every known location of a post.
func (b *Booru) GetFilesForPost(postID int64) ([]*model.PostFile, error) {
	return entity.GetAllWhere[model.PostFile](b.db, "PostId", postID)
}

func (b *Booru) UpdatePostFile(pf *model.PostFile) error {
	return entity.Update(b.db, pf)
}

// DeletePostFile deletes the post file by id.
func (b *Booru) DeletePostFile(pf *model.PostFile) error {
	return entity.Delete(b.db, pf)
}

// CreatePostSiteID inserts the post site id and assigns its id. A duplicate is AlreadyExists.
func (b *Booru) CreatePostSiteID(ps *model.PostSiteID) error {
	return entity.Create(b.db, ps)
}

// GetPostSiteID loads a post site id by id. NotFound if there is none.
func (b *Booru) GetPostSiteID(id int64) (*model.PostSiteID, error) {
	return entity.GetByID[model.PostSiteID](b.db, id)
}

// GetSiteIDsForPost lists the ids a post has on other sites.
func (b *Booru) GetSiteIDsForPost(postID int64) ([]*model.PostSiteID, error) {
	return entity.GetAllWhere[model.PostSiteID](b.db, "PostId", postID)
}

func (b *Booru) UpdatePostSiteID(ps *model.PostSiteID) error {
	return entity.Update(b.db, ps)
}

// DeletePostSiteID deletes the post site id by id.
func (b *Booru) DeletePostSiteID(ps *model.PostSiteID) error {
	return entity.Delete(b.db, ps)
}

// CreateSite inserts the site and assigns its id. A duplicate is AlreadyExists.
func (b *Booru) CreateSite(s *model.Site) error {
	return entity.Create(b.db, s)
}

// GetSite loads a site by id. NotFound if there is none.
func (b *Booru) GetSite(id int64) (*model.Site, error) {
	return entity.GetByID[model.Site](b.db, id)
}

// GetSiteByName finds a site by its unique name. NotFound if there is none.
func (b *Booru) GetSiteByName(name string) (*model.Site, error) {
	return entity.Get[model.Site](b.db, "Name", name)
}

// GetSites lists all sites ordered by id.
func (b *Booru) GetSites() ([]*model.Site, error) {
	return entity.GetAll[model.Site](b.db)
}

// UpdateSite rewrites every column of the site.
func (b *Booru) UpdateSite(s *model.Site) error {
	return entity.Update(b.db, s)
}

// DeleteSite deletes the site by id.
func (b *Booru) DeleteSite(s *model.Site) error {
	return entity.Delete(b.db, s)
}
