package sideeffects

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/hazlijohar95/creatorschapter-sub000/internal/common/errors"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/logger"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/models"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/store"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/store/memory"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) FindConversation(ctx context.Context, a, b string) (*models.Conversation, error) {
	args := m.Called(ctx, a, b)
	c, _ := args.Get(0).(*models.Conversation)
	return c, args.Error(1)
}

func (m *mockStore) InsertConversation(ctx context.Context, c *models.Conversation) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockStore) ListPendingSideEffects(ctx context.Context, limit int) ([]models.SideEffectRequest, error) {
	args := m.Called(ctx, limit)
	reqs, _ := args.Get(0).([]models.SideEffectRequest)
	return reqs, args.Error(1)
}

func (m *mockStore) MarkSideEffectDone(ctx context.Context, id, conversationID string) error {
	return m.Called(ctx, id, conversationID).Error(0)
}

func (m *mockStore) MarkSideEffectFailed(ctx context.Context, id, reason string, final bool) error {
	return m.Called(ctx, id, reason, final).Error(0)
}

func TestEnsureConversation_CreatesOnce(t *testing.T) {
	st := memory.New()
	d := NewDispatcher(st, 3, logger.NewTestLogger(t))
	ctx := context.Background()

	first, err := d.EnsureConversation(ctx, "creator-1", "brand-1", "a-1")
	require.NoError(t, err)

	second, err := d.EnsureConversation(ctx, "creator-1", "brand-1", "a-2")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	convs := st.Conversations()
	require.Len(t, convs, 1)
	assert.Equal(t, "a-1", convs[0].ApplicationID)
	assert.Equal(t, "brand-1", convs[0].ParticipantA)
}

func TestEnsureConversation_ConcurrentCallersShareOneID(t *testing.T) {
	st := memory.New()
	d := NewDispatcher(st, 3, logger.NewNoOpLogger())

	const callers = 32
	ids := make([]string, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			ids[i], errs[i] = d.EnsureConversation(context.Background(), "creator-9", "brand-9", "")
		}(i)
	}
	close(start)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
	assert.Len(t, st.Conversations(), 1)
}

func TestEnsureConversation_RecoversFromLostRace(t *testing.T) {
	m := new(mockStore)
	winner := &models.Conversation{ID: "conv-winner"}

	m.On("FindConversation", mock.Anything, "brand-1", "creator-1").Return(nil, store.ErrNotFound).Once()
	m.On("InsertConversation", mock.Anything, mock.Anything).Return(store.ErrDuplicate).Once()
	m.On("FindConversation", mock.Anything, "brand-1", "creator-1").Return(winner, nil).Once()

	d := NewDispatcher(m, 3, logger.NewNoOpLogger())
	id, err := d.EnsureConversation(context.Background(), "creator-1", "brand-1", "a-1")

	require.NoError(t, err)
	assert.Equal(t, "conv-winner", id)
	m.AssertExpectations(t)
}

func TestEnsureConversation_RetryExhausted(t *testing.T) {
	m := new(mockStore)
	m.On("FindConversation", mock.Anything, mock.Anything, mock.Anything).Return(nil, store.ErrNotFound)
	m.On("InsertConversation", mock.Anything, mock.Anything).Return(store.ErrDuplicate)

	d := NewDispatcher(m, 2, logger.NewNoOpLogger())
	_, err := d.EnsureConversation(context.Background(), "creator-1", "brand-1", "a-1")

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeConflictRetryExhausted, apperrors.CodeOf(err))
	m.AssertNumberOfCalls(t, "InsertConversation", 2)
}

func TestEnsureConversation_StoreFailure(t *testing.T) {
	st := memory.New()
	st.FailNext("FindConversation", errors.New("connection reset"))

	d := NewDispatcher(st, 3, logger.NewNoOpLogger())
	_, err := d.EnsureConversation(context.Background(), "creator-1", "brand-1", "a-1")

	assert.Equal(t, apperrors.ErrCodeDatabaseQueryFailed, apperrors.CodeOf(err))
	assert.Empty(t, st.Conversations())
}

func enqueue(t *testing.T, st *memory.Store, reqs ...models.SideEffectRequest) {
	t.Helper()
	require.NoError(t, st.WithinTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		for _, r := range reqs {
			if err := tx.EnqueueSideEffect(ctx, r); err != nil {
				return err
			}
		}
		return nil
	}))
}

func TestDispatchPending_DrainsOutbox(t *testing.T) {
	st := memory.New()
	enqueue(t, st,
		models.SideEffectRequest{ID: "se-1", Kind: models.SideEffectEnsureConversation, ApplicationID: "a-1",
			CreatorID: "creator-1", BrandID: "brand-1", State: models.SideEffectPending},
		models.SideEffectRequest{ID: "se-2", Kind: models.SideEffectEnsureConversation, ApplicationID: "a-2",
			CreatorID: "creator-1", BrandID: "brand-1", State: models.SideEffectPending},
		models.SideEffectRequest{ID: "se-3", Kind: "send_fax", State: models.SideEffectPending},
	)

	d := NewDispatcher(st, 3, logger.NewTestLogger(t))
	res, err := d.DispatchPending(context.Background(), 10)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Processed)
	assert.Equal(t, 2, res.Completed)
	assert.Equal(t, []string{"se-3"}, res.Failed)

	convs := st.Conversations()
	require.Len(t, convs, 1)

	effects := st.SideEffects()
	assert.Equal(t, models.SideEffectDone, effects[0].State)
	assert.Equal(t, convs[0].ID, effects[0].ConversationID)
	assert.Equal(t, convs[0].ID, effects[1].ConversationID)
	assert.Equal(t, models.SideEffectFailed, effects[2].State)

	pending, err := st.ListPendingSideEffects(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestDispatch_FailureStaysPendingUntilLastAttempt(t *testing.T) {
	m := new(mockStore)
	boom := errors.New("connection reset")
	m.On("FindConversation", mock.Anything, mock.Anything, mock.Anything).Return(nil, boom)
	m.On("MarkSideEffectFailed", mock.Anything, "se-1", mock.Anything, false).Return(nil).Once()
	m.On("MarkSideEffectFailed", mock.Anything, "se-1", mock.Anything, true).Return(nil).Once()

	d := NewDispatcher(m, 3, logger.NewNoOpLogger())
	req := models.SideEffectRequest{ID: "se-1", Kind: models.SideEffectEnsureConversation, CreatorID: "c", BrandID: "b"}

	_, err := d.Dispatch(context.Background(), req)
	require.Error(t, err)

	req.Attempts = 2
	_, err = d.Dispatch(context.Background(), req)
	require.Error(t, err)

	m.AssertExpectations(t)
}
