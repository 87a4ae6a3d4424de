package taxonomy

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiksha-labs/prashnagen/pkg/db/dbtest"
	pkgerrors "github.com/shiksha-labs/prashnagen/pkg/errors"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	svc, err := NewService(NewRepository(dbtest.Open(t)))
	require.NoError(t, err)
	return svc
}

type tree struct {
	board   *BoardDTO
	subject *SubjectDTO
	topic   *TopicDTO
}

func seedTree(t *testing.T, svc Service) tree {
	t.Helper()
	ctx := context.Background()
	board, err := svc.CreateBoard(ctx, CreateBoardRequest{Name: "CBSE", Code: "cbse"})
	require.NoError(t, err)
	subject, err := svc.CreateSubject(ctx, CreateSubjectRequest{BoardID: board.ID, Name: "Science", Grade: 8})
	require.NoError(t, err)
	topic, err := svc.CreateTopic(ctx, CreateTopicRequest{SubjectID: subject.ID, Name: "Photosynthesis"})
	require.NoError(t, err)
	return tree{board: board, subject: subject, topic: topic}
}

func TestCreateAndResolveChain(t *testing.T) {
	svc := newTestService(t)
	tr := seedTree(t, svc)
	assert.Equal(t, "CBSE", tr.board.Code)

	chain, err := svc.ResolveTopic(context.Background(), tr.topic.ID)
	require.NoError(t, err)
	assert.Equal(t, "CBSE", chain.Board.Name)
	assert.Equal(t, "Science", chain.Subject.Name)
	assert.Equal(t, 8, chain.Subject.Grade)
	assert.Equal(t, "Photosynthesis", chain.Topic.Name)
}

func TestResolveRejectsInactiveAncestors(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	tr := seedTree(t, svc)

	_, err := svc.ResolveTopic(ctx, uuid.New())
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInvalidReference))

	_, err = svc.SetBoardActive(ctx, tr.board.ID, false)
	require.NoError(t, err)
	_, err = svc.ResolveTopic(ctx, tr.topic.ID)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInvalidReference))

	_, err = svc.SetBoardActive(ctx, tr.board.ID, true)
	require.NoError(t, err)
	_, err = svc.SetTopicActive(ctx, tr.topic.ID, false)
	require.NoError(t, err)
	_, err = svc.ResolveTopic(ctx, tr.topic.ID)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInvalidReference))
}

func TestSoftDeleteHidesRowsFromPublicListing(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	tr := seedTree(t, svc)
	_, err := svc.CreateTopic(ctx, CreateTopicRequest{SubjectID: tr.subject.ID, Name: "Respiration"})
	require.NoError(t, err)

	deactivated, err := svc.SetTopicActive(ctx, tr.topic.ID, false)
	require.NoError(t, err)
	assert.False(t, deactivated.IsActive)

	public, err := svc.ListTopics(ctx, tr.subject.ID, false)
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, "Respiration", public[0].Name)

	all, err := svc.ListTopics(ctx, tr.subject.ID, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = svc.SetSubjectActive(ctx, tr.subject.ID, false)
	require.NoError(t, err)
	_, err = svc.ListTopics(ctx, tr.subject.ID, false)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

	boards, err := svc.ListBoards(ctx, false)
	require.NoError(t, err)
	assert.Len(t, boards, 1)
}

func TestCreateRequiresActiveParent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	tr := seedTree(t, svc)

	_, err := svc.CreateSubject(ctx, CreateSubjectRequest{BoardID: uuid.New(), Name: "Maths", Grade: 7})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInvalidReference))

	_, err = svc.SetBoardActive(ctx, tr.board.ID, false)
	require.NoError(t, err)
	_, err = svc.CreateSubject(ctx, CreateSubjectRequest{BoardID: tr.board.ID, Name: "Maths", Grade: 7})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInvalidReference))
	_, err = svc.CreateTopic(ctx, CreateTopicRequest{SubjectID: tr.subject.ID, Name: "Cells"})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInvalidReference))

	_, err = svc.SetSubjectActive(ctx, tr.subject.ID, false)
	require.NoError(t, err)
	_, err = svc.SetSubjectActive(ctx, tr.subject.ID, true)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInvalidReference), "reactivating under an inactive board")
}

func TestUpdateAndConflicts(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	tr := seedTree(t, svc)

	_, err := svc.CreateBoard(ctx, CreateBoardRequest{Name: "CBSE", Code: "X"})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))

	name := "Biology"
	grade := 9
	updated, err := svc.UpdateSubject(ctx, tr.subject.ID, UpdateSubjectRequest{Name: &name, Grade: &grade})
	require.NoError(t, err)
	assert.Equal(t, "Biology", updated.Name)
	assert.Equal(t, 9, updated.Grade)

	bad := 13
	_, err = svc.UpdateSubject(ctx, tr.subject.ID, UpdateSubjectRequest{Grade: &bad})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = svc.UpdateTopic(ctx, uuid.New(), UpdateTopicRequest{Name: &name})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

	empty := " "
	_, err = svc.UpdateBoard(ctx, tr.board.ID, UpdateBoardRequest{Name: &empty})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}
