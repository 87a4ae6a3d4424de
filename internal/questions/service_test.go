package questions

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shiksha-labs/prashnagen/pkg/db/dbtest"
	"github.com/shiksha-labs/prashnagen/pkg/db/models"
	"github.com/shiksha-labs/prashnagen/pkg/enums"
	pkgerrors "github.com/shiksha-labs/prashnagen/pkg/errors"
	"github.com/shiksha-labs/prashnagen/pkg/pagination"
)

type fixture struct {
	conn *gorm.DB
	repo *Repository
	svc  Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	svc, err := NewService(repo)
	require.NoError(t, err)
	return &fixture{conn: conn, repo: repo, svc: svc}
}

func (f *fixture) seedOwner(t *testing.T) uuid.UUID {
	t.Helper()
	user := &models.User{
		Email:        uuid.NewString() + "@school.in",
		PasswordHash: "x",
		FirstName:    "Ravi",
		LastName:     "Kumar",
		IsActive:     true,
		SystemRole:   enums.SystemRoleUser,
	}
	require.NoError(t, f.conn.Create(user).Error)
	return user.ID
}

// seedGeneration inserts one generation with a question per type/level pair.
func (f *fixture) seedGeneration(t *testing.T, ownerID, topicID uuid.UUID, specs ...[2]string) []models.Question {
	t.Helper()
	gen := &models.GenerationRequest{
		UserID:         ownerID,
		BoardID:        uuid.New(),
		SubjectID:      uuid.New(),
		TopicID:        topicID,
		QuestionType:   enums.QuestionTypeSingleChoice,
		BloomLevel:     enums.BloomLevelRemembering,
		RequestedCount: len(specs),
		ActualCount:    len(specs),
		UnitCost:       5,
		TotalCost:      5 * int64(len(specs)),
		ParseStrategy:  "direct",
	}
	require.NoError(t, f.conn.Create(gen).Error)

	base := time.Now().UTC().Add(-time.Hour)
	rows := make([]models.Question, 0, len(specs))
	for i, spec := range specs {
		rows = append(rows, models.Question{
			OwnerUserID:   ownerID,
			GenerationID:  gen.ID,
			BoardID:       gen.BoardID,
			SubjectID:     gen.SubjectID,
			TopicID:       topicID,
			QuestionType:  enums.QuestionType(spec[0]),
			BloomLevel:    enums.BloomLevel(spec[1]),
			Text:          "Question " + spec[0] + " " + spec[1],
			Options:       []string{"a", "b"},
			CorrectAnswer: "a",
			Status:        enums.QuestionStatusPendingReview,
			CreatedAt:     base.Add(time.Duration(i) * time.Minute),
		})
	}
	require.NoError(t, f.repo.CreateBatch(context.Background(), rows))
	return rows
}

func TestListOwnFiltersAndScopes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.seedOwner(t)
	other := f.seedOwner(t)
	topicA, topicB := uuid.New(), uuid.New()

	f.seedGeneration(t, owner, topicA,
		[2]string{"single_choice", "remembering"},
		[2]string{"true_false", "remembering"},
		[2]string{"single_choice", "applying"},
	)
	f.seedGeneration(t, owner, topicB, [2]string{"single_choice", "remembering"})
	f.seedGeneration(t, other, topicA, [2]string{"single_choice", "remembering"})

	page, err := f.svc.ListOwn(ctx, owner, Filter{}, pagination.Params{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, page.Items, 4)
	for _, q := range page.Items {
		assert.Equal(t, owner, q.OwnerUserID)
	}

	qt := enums.QuestionTypeSingleChoice
	level := enums.BloomLevelRemembering
	page, err = f.svc.ListOwn(ctx, owner, Filter{TopicID: &topicA, QuestionType: &qt, BloomLevel: &level}, pagination.Params{Limit: 10})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Question single_choice remembering", page.Items[0].Text)

	// the filter cannot be widened to another owner
	page, err = f.svc.ListOwn(ctx, owner, Filter{OwnerUserID: &other}, pagination.Params{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, page.Items, 4)

	bad := enums.QuestionType("essay")
	_, err = f.svc.ListOwn(ctx, owner, Filter{QuestionType: &bad}, pagination.Params{Limit: 10})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInvalidEnum))

	_, err = f.svc.ListOwn(ctx, uuid.Nil, Filter{}, pagination.Params{Limit: 10})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized))
}

func TestListOwnPaginates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.seedOwner(t)
	specs := make([][2]string, 5)
	for i := range specs {
		specs[i] = [2]string{"fill_blank", "remembering"}
	}
	f.seedGeneration(t, owner, uuid.New(), specs...)

	seen := map[uuid.UUID]bool{}
	params := pagination.Params{Limit: 2}
	for pages := 0; ; pages++ {
		require.Less(t, pages, 5)
		page, err := f.svc.ListOwn(ctx, owner, Filter{}, params)
		require.NoError(t, err)
		for _, q := range page.Items {
			seen[q.ID] = true
		}
		if page.NextCursor == "" {
			break
		}
		params.Cursor = page.NextCursor
	}
	assert.Len(t, seen, 5)

	_, err := f.svc.ListOwn(ctx, owner, Filter{}, pagination.Params{Limit: 2, Cursor: "%%%"})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestGetOwnHidesOtherOwners(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.seedOwner(t)
	other := f.seedOwner(t)
	rows := f.seedGeneration(t, owner, uuid.New(), [2]string{"single_choice", "remembering"})

	got, err := f.svc.GetOwn(ctx, owner, rows[0].ID)
	require.NoError(t, err)
	assert.Equal(t, rows[0].ID, got.ID)
	assert.Equal(t, []string{"a", "b"}, got.Options)

	_, err = f.svc.GetOwn(ctx, other, rows[0].ID)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

	_, err = f.svc.GetOwn(ctx, owner, uuid.New())
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestReviewChangesOnlyStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.seedOwner(t)
	rows := f.seedGeneration(t, owner, uuid.New(),
		[2]string{"single_choice", "remembering"},
		[2]string{"single_choice", "remembering"},
	)

	reviewed, err := f.svc.Review(ctx, rows[0].ID, enums.QuestionStatusApproved)
	require.NoError(t, err)
	assert.Equal(t, enums.QuestionStatusApproved, reviewed.Status)
	assert.Equal(t, rows[0].Text, reviewed.Text)
	assert.Equal(t, rows[0].CorrectAnswer, reviewed.CorrectAnswer)

	_, err = f.svc.Review(ctx, rows[1].ID, enums.QuestionStatusPendingReview)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInvalidEnum))

	_, err = f.svc.Review(ctx, uuid.New(), enums.QuestionStatusRejected)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

	pending := enums.QuestionStatusPendingReview
	page, err := f.svc.AdminList(ctx, Filter{Status: &pending}, pagination.Params{Limit: 10})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, rows[1].ID, page.Items[0].ID)
}
