package app

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"booru-go/internal/booru"
	"booru-go/internal/config"
	"booru-go/internal/database"
	"booru-go/internal/encryption"
	"booru-go/internal/importer"
	"booru-go/internal/model"
	"booru-go/internal/result"
	"booru-go/internal/vault"
)

// BooruApp is the application layer between the CLI and the booru facade.
// It constructs all dependencies from config, exposes operations that take
// raw CLI arguments, and closes the database and log on Close.
type BooruApp struct {
	cfg     *config.Config
	booru   *booru.Booru
	logger  *slog.Logger
	logFile io.Closer
	op      *Operation

	vault     vault.Vault
	encryptor encryption.Encryptor
}

// NewBooruApp creates a fully wired BooruApp from the given config.
// operation names the CLI command being run. The caller must call Close.
func NewBooruApp(cfg *config.Config, operation string, parameters []string) (*BooruApp, error) {
	op := NewOperation(operation, parameters, time.Now())

	logger, logFile, err := newLogger(cfg.LogDir, cfg.Log, op.ID)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	sink := &slogAdapter{l: logger}

	db, err := database.NewDatabaseFromConfig(cfg.Database, sink)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("opening database: %w", err)
	}

	b, err := booru.New(db, cfg.Database.Create, booru.WithLogger(sink))
	if err != nil {
		db.Close()
		logFile.Close()
		return nil, fmt.Errorf("opening booru: %w", err)
	}

	logger.Debug("starting", "operation", op.Name, "parameters", op.Parameters)
	return &BooruApp{cfg: cfg, booru: b, logger: logger, logFile: logFile, op: op}, nil
}

// track records a failure on the operation and passes err through.
func (a *BooruApp) track(err error) error {
	if err != nil {
		a.op.Fail()
	}
	return err
}

// Import imports each path, descending into directories per config.
func (a *BooruApp) Import(paths []string, tags []string) (importer.Summary, error) {
	im := importer.New(a.booru, importer.Options{
		Ignore:    a.cfg.Import.Ignore,
		Recursive: a.cfg.Import.Recursive,
		Tags:      tags,
		Logger:    &slogAdapter{l: a.logger},
	})

	var total importer.Summary
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return total, a.track(fmt.Errorf("importing %s: %w", p, err))
		}

		if info.IsDir() {
			sum, err := im.ImportDirectory(p)
			total.Imported += sum.Imported
			total.Existing += sum.Existing
			total.Skipped += sum.Skipped
			total.Failed += sum.Failed
			if err != nil {
				return total, a.track(err)
			}
			continue
		}

		res, err := im.ImportFile(p)
		if err != nil {
			return total, a.track(err)
		}
		if res.Created {
			total.Imported++
		} else {
			total.Existing++
		}
	}
	if total.Failed > 0 {
		a.op.Fail()
	}
	return total, nil
}

// CreateTag creates a tag of the named type. An empty type is Normal.
func (a *BooruApp) CreateTag(name, typeName, description string) (*model.Tag, error) {
	tag := model.NewTag()
	tag.Name = name
	tag.Description = description

	if typeName != "" {
		tt, err := a.booru.GetTagTypeByName(typeName)
		if err != nil {
			return nil, a.track(fmt.Errorf("tag type %s: %w", typeName, err))
		}
		tag.TagTypeID = tt.ID
	}

	if err := a.booru.CreateTag(tag); err != nil {
		return nil, a.track(err)
	}
	return tag, nil
}

// ListTags returns all tags, or those matching glob when it is set.
func (a *BooruApp) ListTags(glob string) ([]*model.Tag, error) {
	if glob == "" {
		return a.booru.GetTags()
	}
	return a.booru.MatchTags(glob)
}

// TagDetails is a tag together with its type, canonical tag and the tags it
// implies.
type TagDetails struct {
	Tag       *model.Tag
	Type      *model.TagType
	Canonical *model.Tag
	Implies   []*model.Tag
	Removes   []*model.Tag
}

// ShowTag collects the details of the named tag.
func (a *BooruApp) ShowTag(name string) (*TagDetails, error) {
	tag, err := a.booru.GetTagByName(name)
	if err != nil {
		return nil, err
	}
	d := &TagDetails{Tag: tag}

	if d.Type, err = a.booru.GetTagType(tag.TagTypeID); err != nil {
		return nil, err
	}
	if d.Canonical, err = a.booru.FollowRedirections(tag); err != nil {
		return nil, err
	}

	implications, err := a.booru.GetTagImplicationsForTag(tag.ID)
	if err != nil {
		return nil, err
	}
	for _, ti := range implications {
		implied, err := a.booru.GetTag(ti.ImpliedTagID)
		if err != nil {
			return nil, err
		}
		if ti.Removes() {
			d.Removes = append(d.Removes, implied)
		} else {
			d.Implies = append(d.Implies, implied)
		}
	}
	return d, nil
}

// DeleteTag deletes the named tag with its associations.
func (a *BooruApp) DeleteTag(name string) error {
	tag, err := a.booru.GetTagByName(name)
	if err != nil {
		return a.track(err)
	}
	return a.track(a.booru.DeleteTag(tag))
}

// RedirectTag makes alias redirect to target. An empty target clears the
// redirect.
func (a *BooruApp) RedirectTag(alias, target string) error {
	tag, err := a.booru.GetTagByName(alias)
	if err != nil {
		return a.track(err)
	}

	tag.RedirectID = sql.Null[int64]{}
	if target != "" {
		dest, err := a.booru.GetTagByName(target)
		if err != nil {
			return a.track(err)
		}
		tag.RedirectID = sql.Null[int64]{V: dest.ID, Valid: true}
	}
	return a.track(a.booru.UpdateTag(tag))
}

// AddImplication makes tag imply (or with remove, un-imply) implied.
func (a *BooruApp) AddImplication(tag, implied string, remove bool) error {
	_, err := a.booru.ImplyTag(tag, implied, remove)
	return a.track(err)
}

// PostDetails is a post with its type, files, site ids and tags.
type PostDetails struct {
	Post    *model.Post
	Type    *model.PostType
	Files   []*model.PostFile
	SiteIDs []*model.PostSiteID
	Tags    []*model.Tag
}

// ShowPost collects the details of a post.
func (a *BooruApp) ShowPost(id int64) (*PostDetails, error) {
	p, err := a.booru.GetPost(id)
	if err != nil {
		return nil, err
	}
	d := &PostDetails{Post: p}

	if d.Type, err = a.booru.GetPostType(p.PostTypeID); err != nil {
		return nil, err
	}
	if d.Files, err = a.booru.GetFilesForPost(id); err != nil {
		return nil, err
	}
	if d.SiteIDs, err = a.booru.GetSiteIDsForPost(id); err != nil {
		return nil, err
	}
	if d.Tags, err = a.booru.GetTagsForPost(id); err != nil {
		return nil, err
	}
	return d, nil
}

// TagPost adds each named tag to a post. Names with a leading '-' are
// removed instead.
func (a *BooruApp) TagPost(id int64, names []string) error {
	for _, name := range names {
		if err := a.booru.AddTagToPost(id, name); err != nil {
			return a.track(err)
		}
	}
	return nil
}

// UntagPost removes each named tag from a post. Tags that are not on the
// post are skipped.
func (a *BooruApp) UntagPost(id int64, names []string) error {
	for _, name := range names {
		err := a.booru.RemoveTagFromPostByName(id, name)
		if errors.Is(err, result.NotFound) {
			a.logger.Info("tag not on post", "post", id, "tag", name)
			continue
		}
		if err != nil {
			return a.track(err)
		}
	}
	return nil
}

// SetRating changes the rating of a post.
func (a *BooruApp) SetRating(id int64, rating int64) error {
	p, err := a.booru.GetPost(id)
	if err != nil {
		return a.track(err)
	}
	p.Rating = rating
	return a.track(a.booru.UpdatePost(p))
}

// Find returns the posts matching a search.
func (a *BooruApp) Find(search string) ([]*model.Post, error) {
	posts, err := a.booru.FindPosts(search)
	return posts, a.track(err)
}

// Backup writes a copy of the database to dest.
func (a *BooruApp) Backup(dest string) error {
	return a.track(a.booru.BackupTo(dest))
}

// Schema returns the DDL of the open database.
func (a *BooruApp) Schema() ([]string, error) {
	return a.booru.SchemaSQL()
}

// Info returns the database id and schema version.
func (a *BooruApp) Info() (id string, version int64, err error) {
	if id, err = a.booru.GetConfig(booru.ConfigID); err != nil {
		return "", 0, err
	}
	version, err = a.booru.Version()
	return id, version, err
}

// Close closes the database and the log.
func (a *BooruApp) Close() error {
	a.logger.Debug("finished", "operation", a.op.Name, "status", a.op.Status, "elapsed", time.Since(a.op.Started).Truncate(time.Millisecond))

	var firstErr error
	if err := a.booru.Close(); err != nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}
	if err := a.logFile.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing log: %w", err)
	}
	return firstErr
}
