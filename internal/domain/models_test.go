package domain

import (
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:domain_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&User{}, &Account{}, &Question{}, &Answer{}, &Tag{},
		&TagQuestion{}, &Vote{}, &Collection{}, &Interaction{}, &Idempotency{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func TestTableNames(t *testing.T) {
	cases := map[string]string{
		User{}.TableName():        "users",
		Account{}.TableName():     "accounts",
		Question{}.TableName():    "questions",
		Answer{}.TableName():      "answers",
		Tag{}.TableName():         "tags",
		TagQuestion{}.TableName(): "tag_questions",
		Vote{}.TableName():        "votes",
		Collection{}.TableName():  "collections",
		Interaction{}.TableName(): "interactions",
		Idempotency{}.TableName(): "idempotency",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("TableName() = %q; want %q", got, want)
		}
	}
}

func TestMigrations_Indexes(t *testing.T) {
	db := newDomainDB(t)
	m := db.Migrator()

	want := []struct {
		model any
		index string
	}{
		{&User{}, "ux_users_email"},
		{&User{}, "ux_users_username"},
		{&Account{}, "ux_accounts_provider"},
		{&Answer{}, "idx_question_answers"},
		{&Tag{}, "ux_tags_name"},
		{&TagQuestion{}, "ux_tag_question"},
		{&Vote{}, "ux_vote_target"},
		{&Collection{}, "ux_collection_entry"},
		{&Interaction{}, "idx_user_interactions"},
		{&Idempotency{}, "ux_idem_user_scope_key"},
	}
	for _, w := range want {
		if !m.HasIndex(w.model, w.index) {
			t.Fatalf("expected index %s on %T", w.index, w.model)
		}
	}
}

func TestUniqueConstraints(t *testing.T) {
	db := newDomainDB(t)
	now := time.Now().UTC()

	u := &User{ID: uuid.NewString(), Name: "Ada", Username: "ada", Email: "ada@example.com", CreatedAt: now, UpdatedAt: now}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("insert user: %v", err)
	}
	dup := &User{ID: uuid.NewString(), Name: "Other", Username: "other", Email: "ada@example.com"}
	if err := db.Create(dup).Error; err == nil {
		t.Fatalf("expected unique violation on users.email")
	}

	a := &Account{ID: uuid.NewString(), UserID: u.ID, Name: "Ada", Provider: "github", ProviderAccountID: "42"}
	if err := db.Create(a).Error; err != nil {
		t.Fatalf("insert account: %v", err)
	}
	a2 := &Account{ID: uuid.NewString(), UserID: u.ID, Name: "Ada", Provider: "github", ProviderAccountID: "42"}
	if err := db.Create(a2).Error; err == nil {
		t.Fatalf("expected unique violation on (provider, providerAccountId)")
	}

	v := &Vote{ID: uuid.NewString(), AuthorID: u.ID, ActionID: uuid.NewString(), ActionType: ActionTypeQuestion, VoteType: VoteUp}
	if err := db.Create(v).Error; err != nil {
		t.Fatalf("insert vote: %v", err)
	}
	v2 := *v
	v2.ID = uuid.NewString()
	v2.VoteType = VoteDown
	if err := db.Create(&v2).Error; err == nil {
		t.Fatalf("expected unique violation on vote target")
	}

	bad := &Vote{ID: uuid.NewString(), AuthorID: u.ID, ActionID: uuid.NewString(), ActionType: "comment", VoteType: VoteUp}
	if err := db.Create(bad).Error; err == nil {
		t.Fatalf("expected check violation on vote action_type")
	}
}

func TestCascades(t *testing.T) {
	db := newDomainDB(t)

	u := &User{ID: uuid.NewString(), Name: "Ada", Username: "ada", Email: "ada@example.com"}
	q := &Question{ID: uuid.NewString(), Title: "Why Go?", Content: "Because.", AuthorID: u.ID}
	tag := &Tag{ID: uuid.NewString(), Name: "go", Questions: 1}
	for _, rec := range []any{u, q, tag} {
		if err := db.Create(rec).Error; err != nil {
			t.Fatalf("insert %T: %v", rec, err)
		}
	}
	for _, rec := range []any{
		&Answer{ID: uuid.NewString(), AuthorID: u.ID, QuestionID: q.ID, Content: "Yes"},
		&TagQuestion{ID: uuid.NewString(), TagID: tag.ID, QuestionID: q.ID},
		&Collection{ID: uuid.NewString(), AuthorID: u.ID, QuestionID: q.ID},
		&Account{ID: uuid.NewString(), UserID: u.ID, Name: "Ada", Provider: "credentials", ProviderAccountID: "ada@example.com"},
	} {
		if err := db.Create(rec).Error; err != nil {
			t.Fatalf("insert %T: %v", rec, err)
		}
	}

	// Deleting the question removes answers, tag links and saved entries.
	if err := db.Delete(&Question{}, "id = ?", q.ID).Error; err != nil {
		t.Fatalf("delete question: %v", err)
	}
	for _, model := range []any{&Answer{}, &TagQuestion{}, &Collection{}} {
		var cnt int64
		if err := db.Model(model).Where("question_id = ?", q.ID).Count(&cnt).Error; err != nil {
			t.Fatalf("count %T: %v", model, err)
		}
		if cnt != 0 {
			t.Fatalf("expected %T rows to cascade-delete, got %d", model, cnt)
		}
	}

	// Deleting the user removes their accounts.
	if err := db.Delete(&User{}, "id = ?", u.ID).Error; err != nil {
		t.Fatalf("delete user: %v", err)
	}
	var cnt int64
	db.Model(&Account{}).Where("user_id = ?", u.ID).Count(&cnt)
	if cnt != 0 {
		t.Fatalf("expected accounts to cascade-delete, got %d", cnt)
	}
}
