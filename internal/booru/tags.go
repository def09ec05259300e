package booru

import (
	"errors"
	"fmt"
	"strings"

	"booru-go/internal/database"
	"booru-go/internal/entity"
	"booru-go/internal/model"
	"booru-go/internal/query"
	"booru-go/internal/result"
)

const (
	// MaxRedirections is the longest redirect chain FollowRedirections walks.
	MaxRedirections = 32
	// MaxImplicationDepth bounds nested implications within one AddTagToPost.
	MaxImplicationDepth = 32
)

// CreateTag inserts the tag and assigns its id. A duplicate is AlreadyExists.
func (b *Booru) CreateTag(t *model.Tag) error {
	return entity.Create(b.db, t)
}

// GetTag loads a tag by id. NotFound if there is none.
func (b *Booru) GetTag(id int64) (*model.Tag, error) {
	return entity.GetByID[model.Tag](b.db, id)
}

// GetTagByName finds a tag by its unique name. NotFound if there is none.
func (b *Booru) GetTagByName(name string) (*model.Tag, error) {
	return entity.Get[model.Tag](b.db, "Name", name)
}

// GetTags lists all tags ordered by id.
func (b *Booru) GetTags() ([]*model.Tag, error) {
	return entity.GetAll[model.Tag](b.db)
}

// UpdateTag rewrites every column of the tag.
func (b *Booru) UpdateTag(t *model.Tag) error {
	return entity.Update(b.db, t)
}

// DeleteTag deletes the tag. Its implications and post associations go
// with it.
func (b *Booru) DeleteTag(t *model.Tag) error {
	return entity.Delete(b.db, t)
}

// CreateTagType inserts the tag type and assigns its id. A duplicate is AlreadyExists.
func (b *Booru) CreateTagType(t *model.TagType) error {
	return entity.Create(b.db, t)
}

// GetTagType loads a tag type by id. NotFound if there is none.
func (b *Booru) GetTagType(id int64) (*model.TagType, error) {
	return entity.GetByID[model.TagType](b.db, id)
}

// GetTagTypeByName finds a tag type by its unique name. NotFound if there is none.
func (b *Booru) GetTagTypeByName(name string) (*model.TagType, error) {
	return entity.Get[model.TagType](b.db, "Name", name)
}

// GetTagTypes lists all tag types ordered by id.
func (b *Booru) GetTagTypes() ([]*model.TagType, error) {
	return entity.GetAll[model.TagType](b.db)
}

// UpdateTagType rewrites every column of the tag type.
func (b *Booru) UpdateTagType(t *model.TagType) error {
	return entity.Update(b.db, t)
}

// DeleteTagType deletes the tag type by id.
func (b *Booru) DeleteTagType(t *model.TagType) error {
	return entity.Delete(b.db, t)
}

// CreateTagImplication inserts the tag implication and assigns its id. A duplicate is AlreadyExists.
func (b *Booru) CreateTagImplication(ti *model.TagImplication) error {
	return entity.Create(b.db, ti)
}

// GetTagImplication loads a tag implication by id. NotFound if there is none.
func (b *Booru) GetTagImplication(id int64) (*model.TagImplication, error) {
	return entity.GetByID[model.TagImplication](b.db, id)
}

// GetTagImplicationsForTag lists the implications fired by adding tagID.
func (b *Booru) GetTagImplicationsForTag(tagID int64) ([]*model.TagImplication, error) {
	return entity.GetAllWhere[model.TagImplication](b.db, "TagId", tagID)
}

func (b *Booru) UpdateTagImplication(ti *model.TagImplication) error {
	return entity.Update(b.db, ti)
}

// DeleteTagImplication deletes the tag implication by id.
func (b *Booru) DeleteTagImplication(ti *model.TagImplication) error {
	return entity.Delete(b.db, ti)
}

// ImplyTag records that adding tagName also adds impliedName, or removes it
// when remove is set.
func (b *Booru) ImplyTag(tagName, impliedName string, remove bool) (*model.TagImplication, error) {
	tag, err := b.GetTagByName(tagName)
	if err != nil {
		return nil, fmt.Errorf("implying %s: %w", impliedName, err)
	}
	implied, err := b.GetTagByName(impliedName)
	if err != nil {
		return nil, fmt.Errorf("implying %s from %s: %w", impliedName, tagName, err)
	}

	ti := model.NewTagImplication()
	ti.TagID = tag.ID
	ti.ImpliedTagID = implied.ID
	if remove {
		ti.Flags |= model.ImplicationFlagRemove
	}
	if err := b.CreateTagImplication(ti); err != nil {
		return nil, err
	}
	return ti, nil
}

// CreatePostTag inserts the post tag and assigns its id. A duplicate is AlreadyExists.
func (b *Booru) CreatePostTag(pt *model.PostTag) error {
	return entity.Create(b.db, pt)
}

// GetPostTag loads a post tag by id. NotFound if there is none.
func (b *Booru) GetPostTag(id int64) (*model.PostTag, error) {
	return entity.GetByID[model.PostTag](b.db, id)
}

// DeletePostTag deletes the post tag by id.
func (b *Booru) DeletePostTag(pt *model.PostTag) error {
	return entity.Delete(b.db, pt)
}

// GetTagsForPost returns the tags on a post ordered by name.
func (b *Booru) GetTagsForPost(postID int64) ([]*model.Tag, error) {
	q := query.Select("Tags").
		Where(query.InSelect("Id", query.Select("PostTags").Column("TagId").Key("PostId"))).
		OrderBy("Name")

	tags, err := entity.List[model.Tag](b.db, q.String(), entity.Params{"PostId": postID})
	if err != nil {
		return nil, fmt.Errorf("listing tags of post %d: %w", postID, err)
	}
	return tags, nil
}

// GetPostsForTag returns the posts carrying a tag ordered by id.
func (b *Booru) GetPostsForTag(tagID int64) ([]*model.Post, error) {
	q := query.Select("Posts").
		Where(query.InSelect("Id", query.Select("PostTags").Column("PostId").Key("TagId"))).
		OrderBy("Id")

	posts, err := entity.List[model.Post](b.db, q.String(), entity.Params{"TagId": tagID})
	if err != nil {
		return nil, fmt.Errorf("listing posts of tag %d: %w", tagID, err)
	}
	return posts, nil
}

// FollowRedirections returns the tag at the end of tag's redirect chain, or
// tag itself when it has no redirect. Chains longer than MaxRedirections
// are RecursionExceeded.
func (b *Booru) FollowRedirections(tag *model.Tag) (*model.Tag, error) {
	current := tag
	for hops := 0; current.RedirectID.Valid; hops++ {
		if hops == MaxRedirections {
			return nil, fmt.Errorf("following redirections of %s: %w", tag.Name, result.RecursionExceeded)
		}
		next, err := b.GetTag(current.RedirectID.V)
		if err != nil {
			return nil, fmt.Errorf("following redirection of %s: %w", current.Name, err)
		}
		current = next
	}
	return current, nil
}

// cascade tracks one AddTagToPost call through its implications. visited
// holds the tags on the current implication path only, so a tag reached
// again along another branch is added again.
type cascade struct {
	depth   int
	visited map[int64]bool
}

// AddTagToPost adds the named tag to a post. A leading '-' removes the tag
// instead. Redirects are followed before adding and the resolved tag's
// implications are applied; failing implications are logged and skipped.
func (b *Booru) AddTagToPost(postID int64, name string) error {
	if rest, ok := strings.CutPrefix(name, "-"); ok {
		return b.RemoveTagFromPostByName(postID, rest)
	}

	tag, err := b.GetTagByName(name)
	if err != nil {
		return fmt.Errorf("adding tag %s to post %d: %w", name, postID, err)
	}
	return b.addTag(postID, tag, &cascade{visited: make(map[int64]bool)})
}

func (b *Booru) addTag(postID int64, tag *model.Tag, c *cascade) error {
	tag, err := b.FollowRedirections(tag)
	if err != nil {
		return fmt.Errorf("adding tag to post %d: %w", postID, err)
	}
	if c.visited[tag.ID] {
		return nil
	}
	if c.depth >= MaxImplicationDepth {
		return fmt.Errorf("adding tag %s to post %d: %w", tag.Name, postID, result.RecursionExceeded)
	}
	c.visited[tag.ID] = true
	c.depth++
	defer func() {
		c.depth--
		delete(c.visited, tag.ID)
	}()

	tx := database.NewTransactionGuard(b.db)
	defer tx.Rollback()
	if err := tx.Err(); err != nil {
		return fmt.Errorf("adding tag %s to post %d: %w", tag.Name, postID, err)
	}

	if err := b.CreatePostTag(model.NewPostTag(postID, tag.ID)); err != nil && !errors.Is(err, result.AlreadyExists) {
		return fmt.Errorf("adding tag %s to post %d: %w", tag.Name, postID, err)
	}

	implications, err := b.GetTagImplicationsForTag(tag.ID)
	if err != nil {
		return fmt.Errorf("adding tag %s to post %d: %w", tag.Name, postID, err)
	}
	for _, ti := range implications {
		if err := b.applyImplication(postID, ti, c); err != nil {
			b.logger.Warn("skipping tag implication", "post", postID, "tag", tag.Name, "implied", ti.ImpliedTagID, "error", err)
		}
	}

	return tx.Commit()
}

func (b *Booru) applyImplication(postID int64, ti *model.TagImplication, c *cascade) error {
	if ti.Removes() {
		err := b.RemoveTagFromPost(postID, ti.ImpliedTagID)
		if errors.Is(err, result.NotFound) {
			return nil
		}
		return err
	}

	implied, err := b.GetTag(ti.ImpliedTagID)
	if err != nil {
		return err
	}
	return b.addTag(postID, implied, c)
}

// RemoveTagFromPost detaches a tag from a post. NotFound if it was not
// attached.
func (b *Booru) RemoveTagFromPost(postID, tagID int64) error {
	stmt, err := query.Delete("PostTags").Key("PostId").Key("TagId").Prepare(b.db)
	if err != nil {
		return fmt.Errorf("removing tag %d from post %d: %w", tagID, postID, err)
	}
	defer stmt.Close()

	if err := stmt.BindInt("PostId", postID); err != nil {
		return fmt.Errorf("removing tag %d from post %d: %w", tagID, postID, err)
	}
	if err := stmt.BindInt("TagId", tagID); err != nil {
		return fmt.Errorf("removing tag %d from post %d: %w", tagID, postID, err)
	}
	if _, err := stmt.Step(true); err != nil {
		return fmt.Errorf("removing tag %d from post %d: %w", tagID, postID, err)
	}
	return nil
}

// RemoveTagFromPostByName detaches the named tag, without following
// redirects.
func (b *Booru) RemoveTagFromPostByName(postID int64, name string) error {
	tag, err := b.GetTagByName(name)
	if err != nil {
		return fmt.Errorf("removing tag %s from post %d: %w", name, postID, err)
	}
	return b.RemoveTagFromPost(postID, tag.ID)
}
