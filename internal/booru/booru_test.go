package booru_test

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/google/go-cmp/cmp"

	"booru-go/internal/booru"
	"booru-go/internal/database/migrations"
	"booru-go/internal/entity"
	"booru-go/internal/model"
	"booru-go/internal/result"
	"booru-go/internal/testutil"
)

func newPost(seed byte) *model.Post {
	p := model.NewPost()
	p.MD5Sum = testutil.MD5([]byte{seed})
	p.MimeType = "image/png"
	p.Width = 640
	p.Height = 480
	return p
}

func mustPost(t *testing.T, b *booru.Booru, seed byte) *model.Post {
	t.Helper()
	p := newPost(seed)
	if err := b.CreatePost(p); err != nil {
		t.Fatalf("CreatePost() error = %v", err)
	}
	return p
}

func TestOpen(t *testing.T) {
	t.Run("creates a new database", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "booru.db")

		b, err := booru.Open(path, true, booru.WithIDGenerator(&testutil.StubIDGenerator{}))
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer b.Close()

		version, err := b.Version()
		if err != nil {
			t.Fatalf("Version() error = %v", err)
		}
		if version != 2 {
			t.Errorf("Version() = %d, want 2", version)
		}

		id, err := b.GetConfig(booru.ConfigID)
		if err != nil {
			t.Fatalf("GetConfig(db.id) error = %v", err)
		}
		if id != "db-1" {
			t.Errorf("db.id = %q, want %q", id, "db-1")
		}
	})

	t.Run("reopens an existing database", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "booru.db")

		b, err := booru.Open(path, true)
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		p := mustPost(t, b, 1)
		if err := b.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}

		b, err = booru.Open(path, false)
		if err != nil {
			t.Fatalf("second Open() error = %v", err)
		}
		defer b.Close()

		if _, err := b.GetPost(p.ID); err != nil {
			t.Errorf("GetPost() after reopen error = %v", err)
		}
	})

	t.Run("refuses a missing database without create", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing.db")

		_, err := booru.Open(path, false)
		if !errors.Is(err, result.NotFound) {
			t.Errorf("Open() error = %v, want NotFound", err)
		}
	})

	t.Run("refuses a database from a newer binary", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "booru.db")

		b, err := booru.Open(path, true)
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		if err := b.SetConfig(booru.ConfigVersion, "99"); err != nil {
			t.Fatalf("SetConfig() error = %v", err)
		}
		b.Close()

		_, err = booru.Open(path, false)
		if !errors.Is(err, result.InvalidRequest) {
			t.Errorf("Open() error = %v, want InvalidRequest", err)
		}
	})
}

func TestSchemaUpgrade(t *testing.T) {
	base := "CREATE TABLE Config (Name TEXT PRIMARY KEY NOT NULL, Value TEXT);\n" +
		"INSERT INTO Config (Name, Value) VALUES ('db.version', '1');\n"

	t.Run("applies every pending upgrade", func(t *testing.T) {
		db := testutil.NewTestDatabase(t)
		schema, err := migrations.NewFromFS(fstest.MapFS{
			"m/1_base.up.sql":  {Data: []byte(base)},
			"m/3_extra.up.sql": {Data: []byte("CREATE TABLE Extra (Id INTEGER PRIMARY KEY);\nUPDATE Config SET Value = '3' WHERE Name == 'db.version';\n")},
		}, "m")
		if err != nil {
			t.Fatalf("NewFromFS() error = %v", err)
		}
		defer schema.Close()

		b, err := booru.New(db, true, booru.WithSchema(schema))
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}

		version, err := b.Version()
		if err != nil {
			t.Fatalf("Version() error = %v", err)
		}
		if version != 3 {
			t.Errorf("Version() = %d, want 3", version)
		}
		if err := db.Execute("INSERT INTO Extra DEFAULT VALUES"); err != nil {
			t.Errorf("upgraded table missing: %v", err)
		}
	})

	t.Run("fails an upgrade that does not advance the version", func(t *testing.T) {
		db := testutil.NewTestDatabase(t)
		schema, err := migrations.NewFromFS(fstest.MapFS{
			"m/1_base.up.sql":  {Data: []byte(base)},
			"m/2_stuck.up.sql": {Data: []byte("CREATE TABLE Stuck (Id INTEGER PRIMARY KEY);\n")},
		}, "m")
		if err != nil {
			t.Fatalf("NewFromFS() error = %v", err)
		}
		defer schema.Close()

		_, err = booru.New(db, true, booru.WithSchema(schema))
		if !errors.Is(err, result.ConditionFailed) {
			t.Errorf("New() error = %v, want ConditionFailed", err)
		}
	})

	t.Run("requires create for an empty database", func(t *testing.T) {
		db := testutil.NewTestDatabase(t)

		if _, err := booru.New(db, false); err == nil {
			t.Error("New() without create expected error on empty database")
		}
	})
}

func TestConfig(t *testing.T) {
	b := testutil.NewTestBooru(t)

	if _, err := b.GetConfig("missing"); !errors.Is(err, result.NotFound) {
		t.Errorf("GetConfig(missing) error = %v, want NotFound", err)
	}

	if err := b.SetConfig("answer", "41"); err != nil {
		t.Fatalf("SetConfig() error = %v", err)
	}
	if err := b.SetConfig("answer", "42"); err != nil {
		t.Fatalf("SetConfig() overwrite error = %v", err)
	}
	n, err := b.GetConfigInt("answer")
	if err != nil {
		t.Fatalf("GetConfigInt() error = %v", err)
	}
	if n != 42 {
		t.Errorf("GetConfigInt() = %d, want 42", n)
	}

	if err := b.SetConfig("word", "forty-two"); err != nil {
		t.Fatalf("SetConfig() error = %v", err)
	}
	if _, err := b.GetConfigInt("word"); !errors.Is(err, result.InvalidArgument) {
		t.Errorf("GetConfigInt(word) error = %v, want InvalidArgument", err)
	}
}

func TestPosts(t *testing.T) {
	t.Run("round trips through create and get", func(t *testing.T) {
		b := testutil.NewTestBooru(t)
		p := newPost(1)
		p.Rating = model.RatingSensitive
		p.OriginalFileName = "cat.png"

		if err := b.CreatePost(p); err != nil {
			t.Fatalf("CreatePost() error = %v", err)
		}
		if !p.Persisted() {
			t.Fatal("CreatePost() did not assign an id")
		}
		if want := testutil.FixedClock().Now().Unix(); p.AddedTime != want {
			t.Errorf("AddedTime = %d, want %d", p.AddedTime, want)
		}

		got, err := b.GetPost(p.ID)
		if err != nil {
			t.Fatalf("GetPost() error = %v", err)
		}
		if diff := cmp.Diff(p, got); diff != "" {
			t.Errorf("GetPost() mismatch (-want +got):\n%s", diff)
		}

		byMD5, err := b.GetPostByMD5(p.MD5Sum)
		if err != nil {
			t.Fatalf("GetPostByMD5() error = %v", err)
		}
		if byMD5.ID != p.ID {
			t.Errorf("GetPostByMD5() id = %d, want %d", byMD5.ID, p.ID)
		}
	})

	t.Run("update stamps the update time", func(t *testing.T) {
		clock := testutil.FixedClock()
		b := testutil.NewTestBooru(t, booru.WithClock(clock))
		p := mustPost(t, b, 1)

		clock.Advance(time.Hour)
		p.Score = 5
		if err := b.UpdatePost(p); err != nil {
			t.Fatalf("UpdatePost() error = %v", err)
		}

		got, err := b.GetPost(p.ID)
		if err != nil {
			t.Fatalf("GetPost() error = %v", err)
		}
		if got.Score != 5 {
			t.Errorf("Score = %d, want 5", got.Score)
		}
		if got.UpdatedTime != got.AddedTime+3600 {
			t.Errorf("UpdatedTime = %d, want %d", got.UpdatedTime, got.AddedTime+3600)
		}
	})

	t.Run("duplicate digest already exists", func(t *testing.T) {
		b := testutil.NewTestBooru(t)
		mustPost(t, b, 1)

		if err := b.CreatePost(newPost(1)); !errors.Is(err, result.AlreadyExists) {
			t.Errorf("CreatePost() duplicate error = %v, want AlreadyExists", err)
		}
	})

	t.Run("rejects an out of range rating", func(t *testing.T) {
		b := testutil.NewTestBooru(t)
		p := newPost(1)
		p.Rating = 9

		if err := b.CreatePost(p); !errors.Is(err, result.InvalidArgument) {
			t.Errorf("CreatePost() error = %v, want InvalidArgument", err)
		}
	})

	t.Run("delete cascades to files and tags", func(t *testing.T) {
		b := testutil.NewTestBooru(t)
		p := mustPost(t, b, 1)
		tag := mustTag(t, b, "red")
		if err := b.AddTagToPost(p.ID, tag.Name); err != nil {
			t.Fatalf("AddTagToPost() error = %v", err)
		}
		pf := model.NewPostFile()
		pf.PostID = p.ID
		pf.Path = "/pics/cat.png"
		if err := b.CreatePostFile(pf); err != nil {
			t.Fatalf("CreatePostFile() error = %v", err)
		}

		id := p.ID
		if err := b.DeletePost(p); err != nil {
			t.Fatalf("DeletePost() error = %v", err)
		}
		if p.ID != entity.InvalidID {
			t.Errorf("DeletePost() left id %d", p.ID)
		}
		if _, err := b.GetPost(id); !errors.Is(err, result.NotFound) {
			t.Errorf("GetPost() after delete error = %v, want NotFound", err)
		}
		files, err := b.GetFilesForPost(id)
		if err != nil {
			t.Fatalf("GetFilesForPost() error = %v", err)
		}
		if len(files) != 0 {
			t.Errorf("GetFilesForPost() = %d files, want 0", len(files))
		}
		posts, err := b.GetPostsForTag(tag.ID)
		if err != nil {
			t.Fatalf("GetPostsForTag() error = %v", err)
		}
		if len(posts) != 0 {
			t.Errorf("GetPostsForTag() = %d posts, want 0", len(posts))
		}
	})

	t.Run("update of a missing post is not found", func(t *testing.T) {
		b := testutil.NewTestBooru(t)
		p := newPost(1)
		p.ID = 77

		if err := b.UpdatePost(p); !errors.Is(err, result.NotFound) {
			t.Errorf("UpdatePost() error = %v, want NotFound", err)
		}
	})
}

func TestPostFilesAndSites(t *testing.T) {
	b := testutil.NewTestBooru(t)
	p := mustPost(t, b, 1)

	local, err := b.GetSiteByName("file")
	if err != nil {
		t.Fatalf("GetSiteByName(file) error = %v", err)
	}
	if local.ID != model.SiteLocalFile {
		t.Errorf("local site id = %d, want %d", local.ID, model.SiteLocalFile)
	}

	remote := model.NewSite()
	remote.Name = "example"
	if err := b.CreateSite(remote); err != nil {
		t.Fatalf("CreateSite() error = %v", err)
	}

	pf := model.NewPostFile()
	pf.PostID = p.ID
	pf.Path = "/pics/cat.png"
	if err := b.CreatePostFile(pf); err != nil {
		t.Fatalf("CreatePostFile() error = %v", err)
	}
	dup := model.NewPostFile()
	dup.PostID = p.ID
	dup.Path = pf.Path
	if err := b.CreatePostFile(dup); !errors.Is(err, result.AlreadyExists) {
		t.Errorf("CreatePostFile() duplicate error = %v, want AlreadyExists", err)
	}

	got, err := b.GetPostFileByPath(model.SiteLocalFile, pf.Path)
	if err != nil {
		t.Fatalf("GetPostFileByPath() error = %v", err)
	}
	if diff := cmp.Diff(pf, got); diff != "" {
		t.Errorf("GetPostFileByPath() mismatch (-want +got):\n%s", diff)
	}

	ps := model.NewPostSiteID()
	ps.PostID = p.ID
	ps.SiteID = remote.ID
	ps.SitePostID = 12345
	if err := b.CreatePostSiteID(ps); err != nil {
		t.Fatalf("CreatePostSiteID() error = %v", err)
	}
	ids, err := b.GetSiteIDsForPost(p.ID)
	if err != nil {
		t.Fatalf("GetSiteIDsForPost() error = %v", err)
	}
	if diff := cmp.Diff([]*model.PostSiteID{ps}, ids); diff != "" {
		t.Errorf("GetSiteIDsForPost() mismatch (-want +got):\n%s", diff)
	}

	orphan := model.NewPostFile()
	orphan.PostID = 999
	orphan.Path = "/pics/none.png"
	if err := b.CreatePostFile(orphan); !errors.Is(err, result.ConstraintForeignKey) {
		t.Errorf("CreatePostFile() orphan error = %v, want ConstraintForeignKey", err)
	}
}

func TestLookupTables(t *testing.T) {
	b := testutil.NewTestBooru(t)

	types, err := b.GetPostTypes()
	if err != nil {
		t.Fatalf("GetPostTypes() error = %v", err)
	}
	var names []string
	for _, pt := range types {
		names = append(names, pt.Name)
	}
	if diff := cmp.Diff([]string{"image", "animation", "archive", "video"}, names); diff != "" {
		t.Errorf("GetPostTypes() mismatch (-want +got):\n%s", diff)
	}

	artist, err := b.GetTagTypeByName("Artist")
	if err != nil {
		t.Fatalf("GetTagTypeByName() error = %v", err)
	}
	artist.Color = 0xFF0000FF
	if err := b.UpdateTagType(artist); err != nil {
		t.Fatalf("UpdateTagType() error = %v", err)
	}
	got, err := b.GetTagType(artist.ID)
	if err != nil {
		t.Fatalf("GetTagType() error = %v", err)
	}
	if got.Color != 0xFF0000FF {
		t.Errorf("Color = %#x, want %#x", got.Color, 0xFF0000FF)
	}
}

func TestSchemaSQL(t *testing.T) {
	b := testutil.NewTestBooru(t)

	stmts, err := b.SchemaSQL()
	if err != nil {
		t.Fatalf("SchemaSQL() error = %v", err)
	}
	all := strings.Join(stmts, "\n")
	for _, want := range []string{"CREATE TABLE Posts", "CREATE TABLE PostTags", "CREATE INDEX I_PostTags_TagId"} {
		if !strings.Contains(all, want) {
			t.Errorf("SchemaSQL() missing %q", want)
		}
	}
}

func TestBackupTo(t *testing.T) {
	dir := t.TempDir()
	b, err := booru.Open(filepath.Join(dir, "booru.db"), true)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer b.Close()
	p := mustPost(t, b, 1)

	backup := filepath.Join(dir, "backup.db")
	if err := b.BackupTo(backup); err != nil {
		t.Fatalf("BackupTo() error = %v", err)
	}

	restored, err := booru.Open(backup, false)
	if err != nil {
		t.Fatalf("Open(backup) error = %v", err)
	}
	defer restored.Close()
	if _, err := restored.GetPostByMD5(p.MD5Sum); err != nil {
		t.Errorf("GetPostByMD5() in backup error = %v", err)
	}
}
