package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/steemit/agora/internal/db"
	"github.com/steemit/agora/internal/membership"
	"github.com/steemit/agora/internal/models"
	"github.com/steemit/agora/internal/notify"
)

// memDB is an in-memory stand-in for every store the services use
type memDB struct {
	mu sync.Mutex

	nextID int64

	users         map[int64]*models.User
	communities   map[int64]*models.Community
	memberships   map[[2]int64]*models.Membership
	bans          map[[2]int64]*models.Ban
	requests      map[int64]*models.ContributorRequest
	posts         map[int64]*models.Post
	reviews       map[int64][]models.Review
	contributions map[int64]*models.Contribution
	votes         map[int64][]models.ContributionReview
	comments      map[int64]*models.Comment
	questions     map[int64]*models.Question
	answers       map[int64]*models.Answer
	conversations map[int64]*models.Conversation
	messages      []*models.Message
	events        []*models.OutboxEvent

	transitions int
}

func newMemDB() *memDB {
	return &memDB{
		users:         map[int64]*models.User{},
		communities:   map[int64]*models.Community{},
		memberships:   map[[2]int64]*models.Membership{},
		bans:          map[[2]int64]*models.Ban{},
		requests:      map[int64]*models.ContributorRequest{},
		posts:         map[int64]*models.Post{},
		reviews:       map[int64][]models.Review{},
		contributions: map[int64]*models.Contribution{},
		votes:         map[int64][]models.ContributionReview{},
		comments:      map[int64]*models.Comment{},
		questions:     map[int64]*models.Question{},
		answers:       map[int64]*models.Answer{},
		conversations: map[int64]*models.Conversation{},
	}
}

func (m *memDB) id() int64 {
	m.nextID++
	return m.nextID
}

// users

type memUsers struct{ *memDB }

func (m memUsers) GetByID(ctx context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id], nil
}

func (m memUsers) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

func (m memUsers) GetByIDs(ctx context.Context, ids []int64) ([]*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m memUsers) Create(ctx context.Context, user *models.User, event *models.OutboxEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == user.Username || u.Email == user.Email {
			return db.ErrDuplicate
		}
	}
	user.ID = m.id()
	m.users[user.ID] = user
	if event != nil {
		m.events = append(m.events, event)
	}
	return nil
}

func (m memUsers) UpdateProfile(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
	return nil
}

// communities

type memCommunities struct{ *memDB }

func (m memCommunities) Create(ctx context.Context, c *models.Community, eventFor func(*models.Community) *models.OutboxEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.communities {
		if existing.Name == c.Name {
			return db.ErrDuplicate
		}
	}
	c.ID = m.id()
	m.communities[c.ID] = c
	m.memberships[[2]int64{c.ID, c.CreatorID}] = &models.Membership{CommunityID: c.ID, UserID: c.CreatorID, Role: models.RoleCreator}
	if eventFor != nil {
		if ev := eventFor(c); ev != nil {
			m.events = append(m.events, ev)
		}
	}
	return nil
}

func (m memCommunities) GetByID(ctx context.Context, id int64) (*models.Community, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.communities[id], nil
}

func (m memCommunities) GetByName(ctx context.Context, name string) (*models.Community, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.communities {
		if c.Name == name {
			return c, nil
		}
	}
	return nil, nil
}

func (m memCommunities) List(ctx context.Context, offset, limit int) ([]*models.Community, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Community
	for _, c := range m.communities {
		out = append(out, c)
	}
	return out, nil
}

func (m memCommunities) Update(ctx context.Context, c *models.Community) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.communities[c.ID] = c
	return nil
}

// memberships; also the membership.Store behind the role resolver

type memMembers struct{ *memDB }

func (m memMembers) GetCommunity(ctx context.Context, id int64) (*models.Community, error) {
	return memCommunities(m).GetByID(ctx, id)
}

func (m memMembers) GetMembership(ctx context.Context, communityID, userID int64) (*models.Membership, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.memberships[[2]int64{communityID, userID}], nil
}

func (m memMembers) CountByRole(ctx context.Context, communityID int64, role models.Role) (int64, error) {
	ids, _ := m.MemberIDs(ctx, communityID, role)
	return int64(len(ids)), nil
}

func (m memMembers) MemberIDs(ctx context.Context, communityID int64, roles ...models.Role) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []int64
	for key, ms := range m.memberships {
		if key[0] != communityID {
			continue
		}
		if len(roles) == 0 || hasRole(roles, ms.Role) {
			ids = append(ids, key[1])
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func hasRole(roles []models.Role, r models.Role) bool {
	for _, x := range roles {
		if x == r {
			return true
		}
	}
	return false
}

func (m memMembers) List(ctx context.Context, communityID int64, role models.Role, offset, limit int) ([]*models.Membership, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Membership
	for key, ms := range m.memberships {
		if key[0] == communityID && (role == models.RoleNone || ms.Role == role) {
			out = append(out, ms)
		}
	}
	return out, nil
}

func (m memMembers) Join(ctx context.Context, ms *models.Membership) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := [2]int64{ms.CommunityID, ms.UserID}
	if _, ok := m.memberships[key]; ok {
		return false, nil
	}
	m.memberships[key] = ms
	return true, nil
}

func (m memMembers) Leave(ctx context.Context, communityID, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := [2]int64{communityID, userID}
	_, ok := m.memberships[key]
	delete(m.memberships, key)
	return ok, nil
}

func (m memMembers) IsBanned(ctx context.Context, communityID, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.bans[[2]int64{communityID, userID}]
	return ok, nil
}

func (m memMembers) Ban(ctx context.Context, ban *models.Ban) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := [2]int64{ban.CommunityID, ban.UserID}
	if _, ok := m.bans[key]; ok {
		return 0, db.ErrDuplicate
	}
	var removed int64
	if _, ok := m.memberships[key]; ok {
		delete(m.memberships, key)
		removed = 1
	}
	for _, req := range m.requests {
		if req.CommunityID == ban.CommunityID && req.UserID == ban.UserID && req.Status == models.RequestPending {
			req.Status = models.RequestRejected
		}
	}
	ban.ID = m.id()
	m.bans[key] = ban
	return removed, nil
}

func (m memMembers) Unban(ctx context.Context, communityID, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := [2]int64{communityID, userID}
	_, ok := m.bans[key]
	delete(m.bans, key)
	return ok, nil
}

func (m memMembers) ListBans(ctx context.Context, communityID int64) ([]*models.Ban, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Ban
	for key, b := range m.bans {
		if key[0] == communityID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m memMembers) CreateRequest(ctx context.Context, req *models.ContributorRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	req.ID = m.id()
	m.requests[req.ID] = req
	return nil
}

func (m memMembers) GetRequest(ctx context.Context, id int64) (*models.ContributorRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if req, ok := m.requests[id]; ok {
		cp := *req
		return &cp, nil
	}
	return nil, nil
}

func (m memMembers) PendingRequest(ctx context.Context, communityID, userID int64) (*models.ContributorRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, req := range m.requests {
		if req.CommunityID == communityID && req.UserID == userID && req.Status == models.RequestPending {
			return req, nil
		}
	}
	return nil, nil
}

func (m memMembers) ListRequests(ctx context.Context, communityID int64, status models.RequestStatus) ([]*models.ContributorRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.ContributorRequest
	for _, req := range m.requests {
		if req.CommunityID == communityID && (status == "" || req.Status == status) {
			out = append(out, req)
		}
	}
	return out, nil
}

func (m memMembers) ApproveRequest(ctx context.Context, req *models.ContributorRequest, reviewerID int64, event *models.OutboxEvent) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := m.requests[req.ID]
	if stored == nil || stored.Status != models.RequestPending {
		return false, nil
	}
	stored.Status = models.RequestApproved
	stored.ReviewedBy = &reviewerID
	m.memberships[[2]int64{req.CommunityID, req.UserID}] = &models.Membership{
		CommunityID: req.CommunityID, UserID: req.UserID, Role: models.RoleContributor,
	}
	if event != nil {
		m.events = append(m.events, event)
	}
	return true, nil
}

func (m memMembers) RejectRequest(ctx context.Context, req *models.ContributorRequest, reviewerID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := m.requests[req.ID]
	if stored == nil || stored.Status != models.RequestPending {
		return false, nil
	}
	stored.Status = models.RequestRejected
	stored.ReviewedBy = &reviewerID
	return true, nil
}

// posts

type memPosts struct{ *memDB }

func (m memPosts) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.posts[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (m memPosts) Create(ctx context.Context, p *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.id()
	cp := *p
	m.posts[p.ID] = &cp
	return nil
}

func (m memPosts) UpdateDraft(ctx context.Context, p *models.Post) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := m.posts[p.ID]
	if stored == nil || stored.Status != models.PostDraft {
		return false, nil
	}
	stored.Title, stored.Content, stored.Preview = p.Title, p.Content, p.Preview
	return true, nil
}

func (m memPosts) DeleteDraft(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := m.posts[id]
	if stored == nil || stored.Status != models.PostDraft {
		return false, nil
	}
	delete(m.posts, id)
	return true, nil
}

func (m memPosts) List(ctx context.Context, communityID int64, status models.PostStatus, offset, limit int) ([]*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Post
	for _, p := range m.posts {
		if p.CommunityID == communityID && (status == "" || p.Status == status) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m memPosts) ListByAuthor(ctx context.Context, authorID int64, offset, limit int) ([]*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Post
	for _, p := range m.posts {
		if p.AuthorID == authorID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m memPosts) Submit(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := m.posts[id]
	if stored == nil || stored.Status != models.PostDraft {
		return false, nil
	}
	stored.Status = models.PostPending
	delete(m.reviews, id)
	return true, nil
}

func (m memPosts) Transition(ctx context.Context, id int64, from, to models.PostStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := m.posts[id]
	if stored == nil || stored.Status != from {
		return false, nil
	}
	stored.Status = to
	if to == models.PostPublished {
		now := time.Now().UTC()
		stored.PublishedAt = &now
	}
	if to == models.PostDraft {
		delete(m.reviews, id)
	}
	m.transitions++
	return true, nil
}

func (m memPosts) AddReview(ctx context.Context, r *models.Review) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.reviews[r.PostID] {
		if existing.ReviewerID == r.ReviewerID {
			return false, nil
		}
	}
	r.ID = m.id()
	m.reviews[r.PostID] = append(m.reviews[r.PostID], *r)
	return true, nil
}

func (m memPosts) Reviews(ctx context.Context, postID int64) ([]models.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Review(nil), m.reviews[postID]...), nil
}

// contributions

type memContributions struct{ *memDB }

func (m memContributions) Create(ctx context.Context, c *models.Contribution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = m.id()
	cp := *c
	m.contributions[c.ID] = &cp
	return nil
}

func (m memContributions) GetByID(ctx context.Context, id int64) (*models.Contribution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.contributions[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (m memContributions) List(ctx context.Context, postID int64, status models.ContributionStatus) ([]*models.Contribution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Contribution
	for _, c := range m.contributions {
		if c.PostID == postID && (status == "" || c.Status == status) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m memContributions) AddVote(ctx context.Context, v *models.ContributionReview) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.votes[v.ContributionID] {
		if existing.VoterID == v.VoterID {
			return false, nil
		}
	}
	v.ID = m.id()
	m.votes[v.ContributionID] = append(m.votes[v.ContributionID], *v)
	return true, nil
}

func (m memContributions) Votes(ctx context.Context, id int64) ([]models.ContributionReview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.ContributionReview(nil), m.votes[id]...), nil
}

func (m memContributions) Resolve(ctx context.Context, c *models.Contribution, to models.ContributionStatus, preview string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := m.contributions[c.ID]
	if stored == nil || stored.Status != models.ContributionPending {
		return false, nil
	}
	stored.Status = to
	if to == models.ContributionApproved {
		post := m.posts[c.PostID]
		post.Content = c.Content
		post.Preview = preview
	}
	return true, nil
}

// discussions

type memDiscussion struct{ *memDB }

func (m memDiscussion) CreateComment(ctx context.Context, c *models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = m.id()
	m.comments[c.ID] = c
	return nil
}

func (m memDiscussion) GetComment(ctx context.Context, id int64) (*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.comments[id], nil
}

func (m memDiscussion) ListComments(ctx context.Context, postID int64, offset, limit int) ([]*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Comment
	for _, c := range m.comments {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m memDiscussion) DeleteComment(ctx context.Context, id, authorID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.comments[id]
	if c == nil || c.AuthorID != authorID {
		return false, nil
	}
	delete(m.comments, id)
	return true, nil
}

func (m memDiscussion) CreateQuestion(ctx context.Context, q *models.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	q.ID = m.id()
	m.questions[q.ID] = q
	return nil
}

func (m memDiscussion) GetQuestion(ctx context.Context, id int64) (*models.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.questions[id], nil
}

func (m memDiscussion) ListQuestions(ctx context.Context, communityID int64, offset, limit int) ([]*models.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Question
	for _, q := range m.questions {
		if q.CommunityID == communityID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (m memDiscussion) DeleteQuestion(ctx context.Context, id, authorID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := m.questions[id]
	if q == nil || q.AuthorID != authorID {
		return false, nil
	}
	delete(m.questions, id)
	for aid, a := range m.answers {
		if a.QuestionID == id {
			delete(m.answers, aid)
		}
	}
	return true, nil
}

func (m memDiscussion) CreateAnswer(ctx context.Context, a *models.Answer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = m.id()
	m.answers[a.ID] = a
	return nil
}

func (m memDiscussion) GetAnswer(ctx context.Context, id int64) (*models.Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.answers[id], nil
}

func (m memDiscussion) ListAnswers(ctx context.Context, questionID int64) ([]*models.Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Answer
	for _, a := range m.answers {
		if a.QuestionID == questionID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m memDiscussion) AcceptAnswer(ctx context.Context, questionID, answerID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.questions[questionID].AcceptedAnswerID = &answerID
	return nil
}

// conversations

type memConversations struct{ *memDB }

func (m memConversations) Create(ctx context.Context, c *models.Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = m.id()
	m.conversations[c.ID] = c
	return nil
}

func (m memConversations) GetByID(ctx context.Context, id int64) (*models.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conversations[id], nil
}

func (m memConversations) Between(ctx context.Context, a, b int64) (*models.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.conversations {
		if c.Includes(a) && c.Includes(b) {
			return c, nil
		}
	}
	return nil, nil
}

func (m memConversations) ListForUser(ctx context.Context, userID int64) ([]*models.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Conversation
	for _, c := range m.conversations {
		if c.Includes(userID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m memConversations) Delete(ctx context.Context, id, creatorID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.conversations[id]
	if c == nil || c.CreatorID != creatorID {
		return false, nil
	}
	delete(m.conversations, id)
	return true, nil
}

func (m memConversations) AddMessage(ctx context.Context, msg *models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg.ID = m.id()
	m.messages = append(m.messages, msg)
	return nil
}

func (m memConversations) Messages(ctx context.Context, conversationID, afterID int64, limit int) ([]*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Message
	for _, msg := range m.messages {
		if msg.ConversationID == conversationID && msg.ID > afterID {
			out = append(out, msg)
		}
	}
	return out, nil
}

// recorder captures notices instead of delivering them
type recorder struct {
	mu      sync.Mutex
	notices []notify.Notice
}

func (r *recorder) Send(ctx context.Context, n notify.Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func (r *recorder) ofType(t models.NotifyType) []notify.Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notify.Notice
	for _, n := range r.notices {
		if n.Type == t {
			out = append(out, n)
		}
	}
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = nil
}

type memPinner struct {
	names []string
	err   error
}

func (p *memPinner) Pin(ctx context.Context, name string, r io.Reader) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	p.names = append(p.names, name)
	return "QmTestCID", nil
}

func (p *memPinner) URL(cid string) string {
	return "https://gateway.test/ipfs/" + cid
}

// fixture wires every service over one memDB
type fixture struct {
	db            *memDB
	notices       *recorder
	roles         *membership.Resolver
	communities   *CommunityService
	posts         *PostService
	reviews       *ReviewService
	contributions *ContributionService
	discussion    *DiscussionService
	conversations *ConversationService
}

func newFixture() *fixture {
	m := newMemDB()
	rec := &recorder{}
	roles := membership.NewResolver(memMembers{m}, nil)
	return &fixture{
		db:            m,
		notices:       rec,
		roles:         roles,
		communities:   NewCommunityService(memCommunities{m}, memMembers{m}, memUsers{m}, roles, rec),
		posts:         NewPostService(memPosts{m}, memMembers{m}, roles, rec),
		reviews:       NewReviewService(memPosts{m}, memMembers{m}, roles, rec),
		contributions: NewContributionService(memPosts{m}, memContributions{m}, memMembers{m}, roles, rec),
		discussion:    NewDiscussionService(memDiscussion{m}, memPosts{m}, roles, rec),
		conversations: NewConversationService(memConversations{m}, memUsers{m}, rec),
	}
}

func (f *fixture) user(name string) int64 {
	u := &models.User{Username: name, Email: name + "@example.com"}
	_ = memUsers{f.db}.Create(context.Background(), u, nil)
	return u.ID
}

// community creates a community owned by creator with the given contributors
// and learners already in place
func (f *fixture) community(creator int64, contributors, learners []int64) int64 {
	c := &models.Community{Name: fmt.Sprintf("community-%d", f.db.nextID+1), CreatorID: creator}
	_ = memCommunities{f.db}.Create(context.Background(), c, nil)
	for _, id := range contributors {
		f.db.memberships[[2]int64{c.ID, id}] = &models.Membership{CommunityID: c.ID, UserID: id, Role: models.RoleContributor}
	}
	for _, id := range learners {
		f.db.memberships[[2]int64{c.ID, id}] = &models.Membership{CommunityID: c.ID, UserID: id, Role: models.RoleLearner}
	}
	return c.ID
}

// pendingPost creates a post by author and submits it for review
func (f *fixture) pendingPost(communityID, author int64) int64 {
	ctx := context.Background()
	p, err := f.posts.Create(ctx, author, communityID, PostInput{Title: "Intro", Content: "<p>hello world</p>"})
	if err != nil {
		panic(err)
	}
	if _, err := f.posts.Submit(ctx, author, p.ID); err != nil {
		panic(err)
	}
	return p.ID
}

func (f *fixture) publishedPost(communityID, author int64) int64 {
	id := f.pendingPost(communityID, author)
	f.db.posts[id].Status = models.PostPublished
	return id
}
