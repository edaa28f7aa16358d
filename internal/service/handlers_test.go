package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matrixnet/social-service/internal/bootstrap"
	"github.com/matrixnet/social-service/internal/domain"
	"github.com/matrixnet/social-service/internal/infrastructure/memory"
	"github.com/matrixnet/social-service/internal/service"
)

type fakeStorage struct{ uploads []string }

func (s *fakeStorage) Upload(_ context.Context, _ string, fileName string) (string, error) {
	s.uploads = append(s.uploads, fileName)
	return "https://fake.local/pic.png", nil
}

type sentMail struct{ To, Subject string }

type fakeNotifier struct{ sent []sentMail }

func (n *fakeNotifier) Send(_ context.Context, to, subject, _ string) error {
	n.sent = append(n.sent, sentMail{To: to, Subject: subject})
	return nil
}

type fakeIndexer struct{ indexed []int64 }

func (i *fakeIndexer) IndexUser(_ context.Context, userID int64, _, _ string) error {
	i.indexed = append(i.indexed, userID)
	return nil
}

type fixture struct {
	store    *memory.Store
	bus      *service.MessageBus
	views    *service.Views
	storage  *fakeStorage
	notifier *fakeNotifier
	indexer  *fakeIndexer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:    memory.NewStore(),
		storage:  &fakeStorage{},
		notifier: &fakeNotifier{},
		indexer:  &fakeIndexer{},
	}
	f.bus = bootstrap.New(bootstrap.Options{
		Starter:  f.store,
		Logger:   quietLogger(),
		Hasher:   func(plain string) (string, error) { return "hashed:" + plain, nil },
		Storage:  f.storage,
		Notifier: f.notifier,
		Indexer:  f.indexer,
	})
	f.views = service.NewViews(f.store)
	return f
}

func (f *fixture) register(t *testing.T, email, username string) int64 {
	t.Helper()
	results, err := f.bus.Handle(context.Background(), domain.RegisterUser{
		Email:    email,
		Username: username,
		Password: "trinity",
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	return results[0].(int64)
}

func TestRegisterUserSendsWelcomeAndIndexes(t *testing.T) {
	f := newFixture(t)

	id := f.register(t, "neo@matrix.net", "neo")
	assert.Equal(t, int64(1), id)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "neo@matrix.net", f.notifier.sent[0].To)
	assert.Equal(t, "Welcome to Matrix-Net", f.notifier.sent[0].Subject)
	assert.Equal(t, []int64{id}, f.indexer.indexed)

	user, err := f.views.GetUser(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "hashed:trinity", user.PasswordHash)
}

func TestRegisterUserDefaultsUsernameFromEmail(t *testing.T) {
	f := newFixture(t)

	id := f.register(t, "morpheus@matrix.net", "")

	user, err := f.views.GetUser(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "morpheus", user.User.Username)
}

func TestRegisterUserRejectsDuplicates(t *testing.T) {
	f := newFixture(t)
	f.register(t, "neo@matrix.net", "neo")

	_, err := f.bus.Handle(context.Background(), domain.RegisterUser{Email: "neo@matrix.net", Password: "x"})
	require.ErrorIs(t, err, domain.ErrUserExists)

	_, err = f.bus.Handle(context.Background(), domain.RegisterUser{Email: "other@matrix.net", Username: "neo", Password: "x"})
	require.ErrorIs(t, err, domain.ErrUserExists)

	assert.Len(t, f.notifier.sent, 1, "failed registrations must not notify")
}

func TestCreatePostRequiresExistingUser(t *testing.T) {
	f := newFixture(t)

	_, err := f.bus.Handle(context.Background(), domain.CreatePost{UserID: 99, Body: "hello"})
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestPostLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.register(t, "neo@matrix.net", "neo")
	reader := f.register(t, "trinity@matrix.net", "trinity")

	results, err := f.bus.Handle(ctx, domain.CreatePost{UserID: author, Body: "wake up", ImageURL: "spoon.png"})
	require.NoError(t, err)
	postID := results[0].(int64)

	results, err = f.bus.Handle(ctx, domain.AddComment{PostID: postID, UserID: reader, Body: "follow the rabbit"})
	require.NoError(t, err)
	commentID := results[0].(int64)
	assert.NotZero(t, commentID, "store assigns the comment id before the event is recorded")

	results, err = f.bus.Handle(ctx, domain.ToggleLike{PostID: postID, UserID: reader})
	require.NoError(t, err)
	assert.Equal(t, true, results[0])

	post, err := f.views.GetPost(ctx, postID)
	require.NoError(t, err)
	require.NotNil(t, post)
	assert.Equal(t, "neo", post.Username, "username is snapshotted from the author")
	require.Len(t, post.Comments, 1)
	assert.Equal(t, commentID, post.Comments[0].ID)
	assert.True(t, post.LikedBy(reader))

	results, err = f.bus.Handle(ctx, domain.ToggleLike{PostID: postID, UserID: reader})
	require.NoError(t, err)
	assert.Equal(t, false, results[0])

	post, err = f.views.GetPost(ctx, postID)
	require.NoError(t, err)
	assert.False(t, post.LikedBy(reader))
}

func TestAddCommentMissingPost(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "neo@matrix.net", "neo")

	_, err := f.bus.Handle(context.Background(), domain.AddComment{PostID: 404, UserID: user, Body: "hi"})
	require.ErrorIs(t, err, domain.ErrPostNotFound)
}

func TestToggleLikeMissingPost(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "neo@matrix.net", "neo")
	sentBefore := len(f.notifier.sent)

	_, err := f.bus.Handle(context.Background(), domain.ToggleLike{PostID: 404, UserID: user})
	require.ErrorIs(t, err, domain.ErrPostNotFound)
	assert.Len(t, f.notifier.sent, sentBefore, "a failed command emits no events")
}

func TestUploadFileReturnsURL(t *testing.T) {
	f := newFixture(t)

	results, err := f.bus.Handle(context.Background(), domain.UploadFile{FileName: "pic.png", LocalPath: "/tmp/pic.png"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "https://fake.local/pic.png", results[0])
	assert.Equal(t, []string{"pic.png"}, f.storage.uploads)
}

func TestUpdateProfilePartialUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.register(t, "neo@matrix.net", "neo")

	bio := "the one"
	_, err := f.bus.Handle(ctx, domain.UpdateProfile{UserID: id, Bio: &bio})
	require.NoError(t, err)

	user, err := f.views.GetUser(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "the one", user.Bio)
	assert.Equal(t, "", user.Location)
}

func TestChangePasswordNotifies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.register(t, "neo@matrix.net", "neo")
	sentBefore := len(f.notifier.sent)

	_, err := f.bus.Handle(ctx, domain.ChangePassword{UserID: id, NewPasswordHash: "hashed:new"})
	require.NoError(t, err)

	require.Len(t, f.notifier.sent, sentBefore+1)
	last := f.notifier.sent[len(f.notifier.sent)-1]
	assert.Equal(t, "neo@matrix.net", last.To)
	assert.Equal(t, "Your password was changed", last.Subject)

	user, err := f.views.GetUser(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "hashed:new", user.PasswordHash)
}

func TestChangePasswordRejectsEmptyHash(t *testing.T) {
	f := newFixture(t)
	id := f.register(t, "neo@matrix.net", "neo")

	_, err := f.bus.Handle(context.Background(), domain.ChangePassword{UserID: id, NewPasswordHash: ""})
	require.ErrorIs(t, err, domain.ErrInvalidOperation)
}

func TestDeleteAccountCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.register(t, "neo@matrix.net", "neo")
	other := f.register(t, "trinity@matrix.net", "trinity")

	results, err := f.bus.Handle(ctx, domain.CreatePost{UserID: author, Body: "wake up"})
	require.NoError(t, err)
	ownPost := results[0].(int64)

	results, err = f.bus.Handle(ctx, domain.CreatePost{UserID: other, Body: "hi"})
	require.NoError(t, err)
	otherPost := results[0].(int64)
	_, err = f.bus.Handle(ctx, domain.AddComment{PostID: otherPost, UserID: author, Body: "hello"})
	require.NoError(t, err)
	_, err = f.bus.Handle(ctx, domain.ToggleLike{PostID: otherPost, UserID: author})
	require.NoError(t, err)

	_, err = f.bus.Handle(ctx, domain.DeleteAccount{UserID: author})
	require.NoError(t, err)

	user, err := f.views.GetUser(ctx, author)
	require.NoError(t, err)
	assert.Nil(t, user)

	post, err := f.views.GetPost(ctx, ownPost)
	require.NoError(t, err)
	assert.Nil(t, post, "the author's posts go with the account")

	post, err = f.views.GetPost(ctx, otherPost)
	require.NoError(t, err)
	require.NotNil(t, post)
	assert.Empty(t, post.Comments, "comments by the deleted user are removed")
	assert.False(t, post.LikedBy(author))
}

// Builds a bus around the real command handlers with a recording handler
// registered for every event, so the full event sequence of a scenario
// can be asserted.
func TestScenarioEventSequence(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	hasher := func(plain string) (string, error) { return "hashed:" + plain, nil }

	commandHandlers := map[string]service.CommandHandler{
		domain.RegisterUser{}.CommandName(): func(ctx context.Context, uow service.UnitOfWork, cmd domain.Command) (service.Result, error) {
			id, err := service.RegisterUser(ctx, uow, cmd.(domain.RegisterUser), hasher)
			return service.Result{Value: id}, err
		},
		domain.CreatePost{}.CommandName(): func(ctx context.Context, uow service.UnitOfWork, cmd domain.Command) (service.Result, error) {
			id, err := service.CreatePost(ctx, uow, cmd.(domain.CreatePost))
			return service.Result{Value: id}, err
		},
		domain.AddComment{}.CommandName(): func(ctx context.Context, uow service.UnitOfWork, cmd domain.Command) (service.Result, error) {
			id, err := service.AddComment(ctx, uow, cmd.(domain.AddComment))
			return service.Result{Value: id}, err
		},
		domain.ToggleLike{}.CommandName(): func(ctx context.Context, uow service.UnitOfWork, cmd domain.Command) (service.Result, error) {
			liked, err := service.ToggleLike(ctx, uow, cmd.(domain.ToggleLike))
			return service.Result{Value: liked}, err
		},
	}

	var sequence []domain.Event
	record := func(_ context.Context, _ service.UnitOfWork, evt domain.Event) error {
		sequence = append(sequence, evt)
		return nil
	}
	eventHandlers := map[string][]service.EventHandler{
		domain.UserRegistered{}.EventName(): {record},
		domain.PostCreated{}.EventName():    {record},
		domain.CommentAdded{}.EventName():   {record},
		domain.LikeToggled{}.EventName():    {record},
	}
	bus := service.NewMessageBus(store, commandHandlers, eventHandlers, quietLogger())

	results, err := bus.Handle(ctx, domain.RegisterUser{Email: "a@x.com", Username: "alice", Password: "wonderland"})
	require.NoError(t, err)
	alice := results[0].(int64)
	results, err = bus.Handle(ctx, domain.RegisterUser{Email: "b@x.com", Username: "bob", Password: "builderer"})
	require.NoError(t, err)
	bob := results[0].(int64)

	results, err = bus.Handle(ctx, domain.CreatePost{UserID: alice, Body: "hi"})
	require.NoError(t, err)
	postID := results[0].(int64)

	_, err = bus.Handle(ctx, domain.AddComment{PostID: postID, UserID: bob, Body: "nice!"})
	require.NoError(t, err)
	_, err = bus.Handle(ctx, domain.ToggleLike{PostID: postID, UserID: bob})
	require.NoError(t, err)
	_, err = bus.Handle(ctx, domain.ToggleLike{PostID: postID, UserID: bob})
	require.NoError(t, err)

	names := make([]string, len(sequence))
	for i, evt := range sequence {
		names[i] = evt.EventName()
	}
	assert.Equal(t, []string{
		"UserRegistered", "UserRegistered",
		"PostCreated", "CommentAdded",
		"LikeToggled", "LikeToggled",
	}, names)

	first := sequence[4].(domain.LikeToggled)
	second := sequence[5].(domain.LikeToggled)
	assert.True(t, first.Liked)
	assert.False(t, second.Liked)

	views := service.NewViews(store)
	post, err := views.GetPost(ctx, postID)
	require.NoError(t, err)
	require.Len(t, post.Comments, 1)
	assert.Equal(t, "nice!", post.Comments[0].Body)
	assert.Equal(t, bob, post.Comments[0].UserID)
	assert.Empty(t, post.Likes, "the second toggle cancels the first")
}

func TestListPosts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.register(t, "neo@matrix.net", "neo")

	var ids []int64
	for _, body := range []string{"first", "second", "third"} {
		results, err := f.bus.Handle(ctx, domain.CreatePost{UserID: author, Body: body})
		require.NoError(t, err)
		ids = append(ids, results[0].(int64))
	}

	posts, err := f.views.ListPosts(ctx, "")
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, ids[0], posts[0].ID)

	byUser, err := f.views.ListUserPosts(ctx, author)
	require.NoError(t, err)
	assert.Len(t, byUser, 3)
}
