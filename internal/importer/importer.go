// Package importer adds media files to a booru as posts.
package importer

import (
	"bytes"
	"crypto/md5"
	"errors"
	"fmt"
	"image"
	"image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"booru-go/internal/booru"
	"booru-go/internal/database"
	"booru-go/internal/model"
	"booru-go/internal/result"
)

// Options configure an Importer.
type Options struct {
	// Ignore patterns are applied to every directory import.
	Ignore []string
	// Recursive descends into subdirectories.
	Recursive bool
	// Tags are added to every imported post.
	Tags   []string
	Logger database.Logger
}

// Importer creates posts and their file locations.
type Importer struct {
	booru     *booru.Booru
	ignore    []string
	recursive bool
	tags      []string
	logger    database.Logger
}

func New(b *booru.Booru, opts Options) *Importer {
	logger := opts.Logger
	if logger == nil {
		logger = database.NewNopLogger()
	}
	return &Importer{
		booru:     b,
		ignore:    opts.Ignore,
		recursive: opts.Recursive,
		tags:      opts.Tags,
		logger:    logger,
	}
}

// Result describes one imported file.
type Result struct {
	Post *model.Post
	// Created is false when a post with the same content already existed.
	Created  bool
	Location string
}

// Summary counts the outcome of a directory import.
type Summary struct {
	Imported int
	Existing int
	Skipped  int
	Failed   int
}

// ImportFile imports the file at filename, recording its absolute path.
func (im *Importer) ImportFile(filename string) (*Result, error) {
	location, err := filepath.Abs(filename)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", filename, err)
	}
	data, err := os.ReadFile(location)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}
	return im.Import(location, data)
}

// Import stores data as a post located at location. Content already known
// by its digest reuses the existing post and only records the location.
func (im *Importer) Import(location string, data []byte) (*Result, error) {
	media, err := probe(data)
	if err != nil {
		return nil, fmt.Errorf("importing %s: %w", location, err)
	}

	db := im.booru.Database()
	tx := database.NewTransactionGuard(db)
	defer tx.Rollback()
	if err := tx.Err(); err != nil {
		return nil, fmt.Errorf("importing %s: %w", location, err)
	}

	sum := md5.Sum(data)
	res := &Result{Location: location}

	res.Post, err = im.booru.GetPostByMD5(sum)
	switch {
	case errors.Is(err, result.NotFound):
		p := model.NewPost()
		p.MD5Sum = sum
		p.PostTypeID = media.postType
		p.MimeType = media.mimeType
		p.Width = int64(media.width)
		p.Height = int64(media.height)
		p.OriginalFileName = path.Base(filepath.ToSlash(location))
		if err := im.booru.CreatePost(p); err != nil {
			return nil, fmt.Errorf("importing %s: %w", location, err)
		}
		res.Post = p
		res.Created = true
	case err != nil:
		return nil, fmt.Errorf("importing %s: %w", location, err)
	}

	pf := model.NewPostFile()
	pf.PostID = res.Post.ID
	pf.Path = location
	if err := im.booru.CreatePostFile(pf); err != nil && !errors.Is(err, result.AlreadyExists) {
		return nil, fmt.Errorf("importing %s: %w", location, err)
	}

	for _, tag := range im.tags {
		if err := im.booru.AddTagToPost(res.Post.ID, tag); err != nil {
			return nil, fmt.Errorf("tagging %s with %s: %w", location, tag, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("importing %s: %w", location, err)
	}
	return res, nil
}

// ImportDirectory imports every file under dir.
func (im *Importer) ImportDirectory(dir string) (Summary, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Summary{}, fmt.Errorf("resolving %s: %w", dir, err)
	}
	return im.ImportFS(os.DirFS(abs), abs)
}

// ImportFS imports every file in fsys, recording locations under base.
// Files that are not media are skipped; other failures are counted and
// logged without stopping the walk.
func (im *Importer) ImportFS(fsys fs.FS, base string) (Summary, error) {
	var sum Summary

	ignore := NewIgnoreMatcher(defaultIgnorePatterns)
	ignore.Add(im.ignore...)
	patterns, err := ReadIgnoreFile(fsys, IgnoreFile)
	if err != nil {
		return sum, err
	}
	ignore.Add(patterns...)

	err = fs.WalkDir(fsys, ".", func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if name == "." {
			return nil
		}
		if ignore.Match(name) {
			if d.IsDir() {
				return fs.SkipDir
			}
			sum.Skipped++
			return nil
		}
		if d.IsDir() {
			if !im.recursive {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading %s: %w", name, err)
		}

		location := filepath.Join(base, filepath.FromSlash(name))
		res, err := im.Import(location, data)
		switch {
		case errors.Is(err, result.InvalidArgument):
			im.logger.Debug("skipping non-media file", "path", location)
			sum.Skipped++
		case err != nil:
			im.logger.Warn("import failed", "path", location, "error", err)
			sum.Failed++
		case res.Created:
			im.logger.Info("imported", "path", location, "post", res.Post.ID)
			sum.Imported++
		default:
			im.logger.Debug("already imported", "path", location, "post", res.Post.ID)
			sum.Existing++
		}
		return nil
	})
	if err != nil {
		return sum, fmt.Errorf("walking %s: %w", base, err)
	}
	return sum, nil
}

type media struct {
	mimeType string
	postType int64
	width    int
	height   int
}

// probe classifies data by content. Anything that is not an image, video
// or archive is InvalidArgument.
func probe(data []byte) (media, error) {
	if cfg, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		m := media{
			mimeType: "image/" + format,
			postType: model.PostTypeImage,
			width:    cfg.Width,
			height:   cfg.Height,
		}
		if format == "gif" && animated(data) {
			m.postType = model.PostTypeAnimation
		}
		// EXIF orientation may swap the stored dimensions.
		if format == "jpeg" {
			if img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true)); err == nil {
				m.width, m.height = img.Bounds().Dx(), img.Bounds().Dy()
			}
		}
		return m, nil
	}

	mimeType, _, _ := strings.Cut(http.DetectContentType(data), ";")
	switch {
	case strings.HasPrefix(mimeType, "video/"):
		return media{mimeType: mimeType, postType: model.PostTypeVideo}, nil
	case mimeType == "application/zip", mimeType == "application/x-rar-compressed":
		return media{mimeType: mimeType, postType: model.PostTypeArchive}, nil
	}
	return media{}, fmt.Errorf("unsupported content type %s: %w", mimeType, result.InvalidArgument)
}

func animated(data []byte) bool {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	return err == nil && len(g.Image) > 1
}
