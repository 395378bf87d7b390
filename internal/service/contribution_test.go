package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steemit/agora/internal/errs"
	"github.com/steemit/agora/internal/models"
)

func TestContributionMergesOnce(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	creator, a, b, c := f.user("creator"), f.user("alice"), f.user("bob"), f.user("carol")
	community := f.community(creator, []int64{a, b, c}, nil)
	post := f.publishedPost(community, creator)

	contrib, err := f.contributions.Propose(ctx, a, post, "<p>better content</p>", "fix typos")
	require.NoError(t, err)
	assert.Equal(t, models.ContributionPending, contrib.Status)

	proposed := f.notices.ofType(models.NotifyContribution)
	require.Len(t, proposed, 1)
	assert.ElementsMatch(t, []int64{creator, b, c}, proposed[0].Recipients)

	// N=3, threshold 2
	res, err := f.contributions.Vote(ctx, b, contrib.ID, models.VerdictApproved, "")
	require.NoError(t, err)
	assert.Equal(t, models.ContributionPending, res.Status)
	assert.Equal(t, 2, res.Decision.Threshold)

	res, err = f.contributions.Vote(ctx, c, contrib.ID, models.VerdictApproved, "")
	require.NoError(t, err)
	assert.Equal(t, models.ContributionApproved, res.Status)
	assert.Equal(t, "<p>better content</p>", f.db.posts[post].Content)
	assert.Equal(t, "better content", f.db.posts[post].Preview)

	results := f.notices.ofType(models.NotifyContributionResult)
	require.Len(t, results, 1)
	assert.Equal(t, []int64{a}, results[0].Recipients)

	_, err = f.contributions.Vote(ctx, creator, contrib.ID, models.VerdictApproved, "")
	require.Error(t, err)
	assert.Equal(t, errs.Conflict, errs.KindOf(err))
	assert.Contains(t, err.Error(), "already approved")
	assert.Len(t, f.notices.ofType(models.NotifyContributionResult), 1)
}

func TestContributionRejected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	creator, a, b := f.user("creator"), f.user("alice"), f.user("bob")
	community := f.community(creator, []int64{a, b}, nil)
	post := f.publishedPost(community, creator)
	original := f.db.posts[post].Content

	contrib, err := f.contributions.Propose(ctx, a, post, "worse", "")
	require.NoError(t, err)

	_, err = f.contributions.Vote(ctx, b, contrib.ID, models.VerdictRejected, "off topic")
	require.NoError(t, err)
	res, err := f.contributions.Vote(ctx, creator, contrib.ID, models.VerdictRejected, "")
	require.NoError(t, err)

	assert.Equal(t, models.ContributionRejected, res.Status)
	assert.Equal(t, original, f.db.posts[post].Content)
	results := f.notices.ofType(models.NotifyContributionResult)
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Message, "off topic")
}

func TestContributionGuards(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	creator, a, b, learner := f.user("creator"), f.user("alice"), f.user("bob"), f.user("learner")
	community := f.community(creator, []int64{a, b}, []int64{learner})
	published := f.publishedPost(community, creator)
	pending := f.pendingPost(community, creator)

	_, err := f.contributions.Propose(ctx, learner, published, "text", "")
	assert.Equal(t, errs.Forbidden, errs.KindOf(err))

	_, err = f.contributions.Propose(ctx, a, pending, "text", "")
	assert.Equal(t, errs.Conflict, errs.KindOf(err))

	_, err = f.contributions.Propose(ctx, a, published, "  ", "")
	assert.Equal(t, errs.Invalid, errs.KindOf(err))

	contrib, err := f.contributions.Propose(ctx, a, published, "text", "")
	require.NoError(t, err)

	_, err = f.contributions.Vote(ctx, a, contrib.ID, models.VerdictApproved, "")
	assert.Equal(t, errs.Conflict, errs.KindOf(err))

	_, err = f.contributions.Vote(ctx, learner, contrib.ID, models.VerdictApproved, "")
	assert.Equal(t, errs.Forbidden, errs.KindOf(err))

	_, err = f.contributions.Vote(ctx, b, contrib.ID, models.VerdictApproved, "")
	require.NoError(t, err)
	_, err = f.contributions.Vote(ctx, b, contrib.ID, models.VerdictApproved, "")
	assert.Equal(t, errs.Conflict, errs.KindOf(err))

	_, err = f.contributions.Get(ctx, 9999)
	assert.Equal(t, errs.NotFound, errs.KindOf(err))

	list, err := f.contributions.List(ctx, published, models.ContributionPending)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
