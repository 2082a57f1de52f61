package community

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gorilla/mux"

	"sisterhood-backend/controllers/authentication"
	"sisterhood-backend/models/community"
	"sisterhood-backend/models/users"
	"sisterhood-backend/services/media"
	"sisterhood-backend/testutil"
	"sisterhood-backend/validation"
)

type env struct {
	t      *testing.T
	h      *Handler
	router *mux.Router
}

func newEnv(t *testing.T) *env {
	t.Helper()
	h := &Handler{DB: testutil.NewDB(t), Media: media.NoopStore{}, Validator: validation.New()}
	r := mux.NewRouter()
	r.HandleFunc("/api/groups", h.ListGroups).Methods(http.MethodGet)
	r.HandleFunc("/api/groups", h.CreateGroup).Methods(http.MethodPost)
	r.HandleFunc("/api/groups/{id:[0-9]+}", h.GetGroup).Methods(http.MethodGet)
	r.HandleFunc("/api/groups/{id:[0-9]+}/join", h.JoinGroup).Methods(http.MethodPost)
	r.HandleFunc("/api/groups/{id:[0-9]+}/leave", h.LeaveGroup).Methods(http.MethodPost)
	r.HandleFunc("/api/groups/{id:[0-9]+}/discussions", h.CreateDiscussion).Methods(http.MethodPost)
	r.HandleFunc("/api/discussions/{id:[0-9]+}", h.GetDiscussion).Methods(http.MethodGet)
	r.HandleFunc("/api/discussions/{id:[0-9]+}/like", h.ToggleDiscussionLike).Methods(http.MethodPost)
	r.HandleFunc("/api/discussions/{id:[0-9]+}/comments", h.CreateComment).Methods(http.MethodPost)
	r.HandleFunc("/api/discussions/{id:[0-9]+}/pin", h.PinDiscussion).Methods(http.MethodPost)
	return &env{t: t, h: h, router: r}
}

func (e *env) user(email string) *authentication.Claims {
	e.t.Helper()
	u := users.User{Name: email, Email: email, Role: users.RoleUser}
	if err := e.h.DB.Create(&u).Error; err != nil {
		e.t.Fatalf("create user: %v", err)
	}
	return &authentication.Claims{UserID: u.ID, Email: u.Email, Role: u.Role}
}

func (e *env) do(method, path string, claims *authentication.Claims, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(authentication.WithClaims(req.Context(), claims))
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *env) group(owner *authentication.Claims, name, visibility string) groupView {
	e.t.Helper()
	rec := e.do(http.MethodPost, "/api/groups", owner, map[string]string{
		"name": name, "description": "about " + name, "visibility": visibility,
	})
	if rec.Code != http.StatusCreated {
		e.t.Fatalf("create group: %d %s", rec.Code, rec.Body.String())
	}
	var g groupView
	json.Unmarshal(rec.Body.Bytes(), &g)
	return g
}

func path(prefix string, id uint, suffix string) string {
	return prefix + strconv.FormatUint(uint64(id), 10) + suffix
}

func TestCreateGroupMakesCreatorAdmin(t *testing.T) {
	e := newEnv(t)
	owner := e.user("owner@example.com")
	g := e.group(owner, "Mothers in tech", "")
	if g.Visibility != community.VisibilityPublic || !g.IsMember || g.MemberCount != 1 {
		t.Fatalf("unexpected group: %+v", g)
	}
	member, ok, err := e.h.membership(g.ID, owner.UserID)
	if err != nil || !ok || member.Role != community.RoleAdmin {
		t.Fatalf("creator membership: %+v %v %v", member, ok, err)
	}

	rec := e.do(http.MethodPost, "/api/groups", owner, map[string]string{"name": "", "description": "x"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("blank name: %d", rec.Code)
	}
	rec = e.do(http.MethodPost, "/api/groups", owner, map[string]string{"name": "n", "description": "x", "visibility": "secret"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad visibility: %d", rec.Code)
	}
}

func TestListGroupsHidesForeignPrivateGroups(t *testing.T) {
	e := newEnv(t)
	owner := e.user("owner@example.com")
	other := e.user("other@example.com")
	e.group(owner, "Open circle", community.VisibilityPublic)
	private := e.group(owner, "Closed circle", community.VisibilityPrivate)

	var seen []groupView
	json.Unmarshal(e.do(http.MethodGet, "/api/groups", other, nil).Body.Bytes(), &seen)
	if len(seen) != 1 || seen[0].Name != "Open circle" || seen[0].IsMember {
		t.Fatalf("unexpected list for outsider: %+v", seen)
	}

	json.Unmarshal(e.do(http.MethodGet, "/api/groups", owner, nil).Body.Bytes(), &seen)
	if len(seen) != 2 {
		t.Fatalf("owner must see both groups, got %d", len(seen))
	}

	if rec := e.do(http.MethodGet, path("/api/groups/", private.ID, ""), other, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("private detail: %d", rec.Code)
	}
}

func TestJoinAndLeave(t *testing.T) {
	e := newEnv(t)
	owner := e.user("owner@example.com")
	joiner := e.user("joiner@example.com")
	open := e.group(owner, "Open", community.VisibilityPublic)
	closed := e.group(owner, "Closed", community.VisibilityPrivate)

	if rec := e.do(http.MethodPost, path("/api/groups/", closed.ID, "/join"), joiner, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("join private: %d", rec.Code)
	}
	if rec := e.do(http.MethodPost, path("/api/groups/", open.ID, "/leave"), joiner, nil); rec.Code != http.StatusConflict {
		t.Fatalf("leave before join: %d", rec.Code)
	}
	for i := 0; i < 2; i++ {
		if rec := e.do(http.MethodPost, path("/api/groups/", open.ID, "/join"), joiner, nil); rec.Code != http.StatusOK {
			t.Fatalf("join #%d: %d", i, rec.Code)
		}
	}
	var count int64
	e.h.DB.Model(&community.GroupMember{}).Where("group_id = ?", open.ID).Count(&count)
	if count != 2 {
		t.Fatalf("expected 2 members, got %d", count)
	}

	if rec := e.do(http.MethodPost, path("/api/groups/", open.ID, "/leave"), owner, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("creator leave: %d", rec.Code)
	}
	if rec := e.do(http.MethodPost, path("/api/groups/", open.ID, "/leave"), joiner, nil); rec.Code != http.StatusOK {
		t.Fatalf("leave: %d", rec.Code)
	}
}

func TestDiscussionsAreForMembers(t *testing.T) {
	e := newEnv(t)
	owner := e.user("owner@example.com")
	outsider := e.user("outsider@example.com")
	g := e.group(owner, "Open", community.VisibilityPublic)

	rec := e.do(http.MethodPost, path("/api/groups/", g.ID, "/discussions"), outsider, map[string]string{"content": "hi"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("outsider discussion: %d", rec.Code)
	}
	rec = e.do(http.MethodPost, path("/api/groups/", g.ID, "/discussions"), owner, map[string]string{"title": "Welcome", "content": "Say hi"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create discussion: %d %s", rec.Code, rec.Body.String())
	}
	var d community.Discussion
	json.Unmarshal(rec.Body.Bytes(), &d)

	if rec := e.do(http.MethodPost, path("/api/discussions/", d.ID, "/like"), outsider, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("outsider like: %d", rec.Code)
	}
	if rec := e.do(http.MethodPost, path("/api/discussions/", d.ID, "/comments"), outsider, map[string]string{"content": "x"}); rec.Code != http.StatusForbidden {
		t.Fatalf("outsider comment: %d", rec.Code)
	}

	var like likeResponse
	json.Unmarshal(e.do(http.MethodPost, path("/api/discussions/", d.ID, "/like"), owner, nil).Body.Bytes(), &like)
	if !like.Liked || like.LikeCount != 1 {
		t.Fatalf("like: %+v", like)
	}
	json.Unmarshal(e.do(http.MethodPost, path("/api/discussions/", d.ID, "/like"), owner, nil).Body.Bytes(), &like)
	if like.Liked || like.LikeCount != 0 {
		t.Fatalf("unlike: %+v", like)
	}

	e.do(http.MethodPost, path("/api/discussions/", d.ID, "/comments"), owner, map[string]string{"content": "first"})
	e.do(http.MethodPost, path("/api/discussions/", d.ID, "/comments"), owner, map[string]string{"content": "second"})
	if rec := e.do(http.MethodPost, path("/api/discussions/", d.ID, "/comments"), owner, map[string]string{"content": " "}); rec.Code != http.StatusBadRequest {
		t.Fatalf("blank comment: %d", rec.Code)
	}

	var detail discussionDetail
	json.Unmarshal(e.do(http.MethodGet, path("/api/discussions/", d.ID, ""), outsider, nil).Body.Bytes(), &detail)
	if detail.IsMember || detail.CommentCount != 2 || len(detail.Comments) != 2 || detail.Comments[0].Content != "first" {
		t.Fatalf("unexpected detail: %+v", detail)
	}
}

func TestPinnedDiscussionsFirst(t *testing.T) {
	e := newEnv(t)
	owner := e.user("owner@example.com")
	member := e.user("member@example.com")
	g := e.group(owner, "Open", community.VisibilityPublic)
	e.do(http.MethodPost, path("/api/groups/", g.ID, "/join"), member, nil)

	var first, second community.Discussion
	json.Unmarshal(e.do(http.MethodPost, path("/api/groups/", g.ID, "/discussions"), owner, map[string]string{"content": "rules"}).Body.Bytes(), &first)
	json.Unmarshal(e.do(http.MethodPost, path("/api/groups/", g.ID, "/discussions"), member, map[string]string{"content": "hello"}).Body.Bytes(), &second)

	if rec := e.do(http.MethodPost, path("/api/discussions/", first.ID, "/pin"), member, map[string]bool{"pinned": true}); rec.Code != http.StatusForbidden {
		t.Fatalf("member pin: %d", rec.Code)
	}
	if rec := e.do(http.MethodPost, path("/api/discussions/", first.ID, "/pin"), owner, map[string]bool{"pinned": true}); rec.Code != http.StatusOK {
		t.Fatalf("admin pin: %d", rec.Code)
	}

	var detail groupDetail
	json.Unmarshal(e.do(http.MethodGet, path("/api/groups/", g.ID, ""), member, nil).Body.Bytes(), &detail)
	if len(detail.Discussions) != 2 || detail.Discussions[0].ID != first.ID {
		t.Fatalf("pinned discussion must come first: %+v", detail.Discussions)
	}
	if detail.MemberCount != 2 || detail.Role != community.RoleMember || detail.IsCreator {
		t.Fatalf("unexpected detail header: %+v", detail.groupView)
	}
}
