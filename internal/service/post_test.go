package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steemit/agora/internal/errs"
	"github.com/steemit/agora/internal/models"
)

func TestPostLifecycle(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner, a, learner := f.user("owner"), f.user("alice"), f.user("learner")
	community := f.community(owner, []int64{a}, []int64{learner})

	_, err := f.posts.Create(ctx, learner, community, PostInput{Title: "t", Content: "c"})
	assert.Equal(t, errs.Forbidden, errs.KindOf(err))
	_, err = f.posts.Create(ctx, a, community, PostInput{Title: "", Content: "c"})
	assert.Equal(t, errs.Invalid, errs.KindOf(err))

	post, err := f.posts.Create(ctx, a, community, PostInput{Title: " Hello ", Content: "<p>First draft</p>"})
	require.NoError(t, err)
	assert.Equal(t, models.PostDraft, post.Status)
	assert.Equal(t, "Hello", post.Title)
	assert.Equal(t, "First draft", post.Preview)

	// drafts are private to the author
	_, err = f.posts.Get(ctx, owner, post.ID)
	assert.Equal(t, errs.NotFound, errs.KindOf(err))

	_, err = f.posts.Update(ctx, owner, post.ID, PostInput{Title: "x", Content: "y"})
	assert.Equal(t, errs.Forbidden, errs.KindOf(err))
	updated, err := f.posts.Update(ctx, a, post.ID, PostInput{Title: "Hello", Content: "<p>Second draft</p>"})
	require.NoError(t, err)
	assert.Equal(t, "Second draft", updated.Preview)

	submitted, err := f.posts.Submit(ctx, a, post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PostPending, submitted.Status)

	review := f.notices.ofType(models.NotifyNewPost)
	require.Len(t, review, 1)
	assert.Equal(t, []int64{owner}, review[0].Recipients)

	// pending posts are visible to reviewers but not learners
	_, err = f.posts.Get(ctx, owner, post.ID)
	assert.NoError(t, err)
	_, err = f.posts.Get(ctx, learner, post.ID)
	assert.Equal(t, errs.NotFound, errs.KindOf(err))

	_, err = f.posts.Update(ctx, a, post.ID, PostInput{Title: "x", Content: "y"})
	assert.Equal(t, errs.Conflict, errs.KindOf(err))
	_, err = f.posts.Submit(ctx, a, post.ID)
	assert.Equal(t, errs.Conflict, errs.KindOf(err))
	assert.Equal(t, errs.Conflict, errs.KindOf(f.posts.Delete(ctx, a, post.ID)))
}

func TestListPosts(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner, a, learner := f.user("owner"), f.user("alice"), f.user("learner")
	community := f.community(owner, []int64{a}, []int64{learner})
	f.publishedPost(community, a)
	f.pendingPost(community, a)

	list, err := f.posts.List(ctx, learner, community, "", 0, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = f.posts.List(ctx, learner, community, models.PostPending, 0, 0)
	assert.Equal(t, errs.Forbidden, errs.KindOf(err))
	list, err = f.posts.List(ctx, owner, community, models.PostPending, 0, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = f.posts.List(ctx, owner, community, models.PostDraft, 0, 0)
	assert.Equal(t, errs.Invalid, errs.KindOf(err))

	mine, err := f.posts.Mine(ctx, a, 0, 0)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestDeleteDraft(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner := f.user("owner")
	community := f.community(owner, nil, nil)
	post, err := f.posts.Create(ctx, owner, community, PostInput{Title: "t", Content: "c"})
	require.NoError(t, err)

	require.NoError(t, f.posts.Delete(ctx, owner, post.ID))
	_, err = f.posts.Get(ctx, owner, post.ID)
	assert.Equal(t, errs.NotFound, errs.KindOf(err))
}

func TestPage(t *testing.T) {
	tests := []struct {
		offset, limit         int
		wantOffset, wantLimit int
	}{
		{0, 0, 0, DefaultLimit},
		{-5, 10, 0, 10},
		{40, 1000, 40, MaxLimit},
	}
	for _, tt := range tests {
		o, l := page(tt.offset, tt.limit)
		assert.Equal(t, tt.wantOffset, o)
		assert.Equal(t, tt.wantLimit, l)
	}
}
