package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"thesis-hub/backend/internal/dto"
	"thesis-hub/backend/internal/service"
	pkgerrors "thesis-hub/backend/pkg/errors"
	"thesis-hub/backend/pkg/jwt"
	"thesis-hub/backend/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock StudentService ──

type mockStudentService struct {
	createResult *dto.StudentResponse
	createErr    error
	getResult    *dto.StudentResponse
	getErr       error
	listResult   []dto.StudentResponse
	listTotal    int64
	listErr      error
}

func (m *mockStudentService) Create(_ context.Context, _ *dto.CreateStudentRequest) (*dto.StudentResponse, error) {
	return m.createResult, m.createErr
}
func (m *mockStudentService) GetByID(_ context.Context, _ string) (*dto.StudentResponse, error) {
	return m.getResult, m.getErr
}
func (m *mockStudentService) List(_ context.Context, _ *dto.StudentListRequest) ([]dto.StudentResponse, int64, error) {
	return m.listResult, m.listTotal, m.listErr
}

// ── Mock AdvisorService ──

type mockAdvisorService struct {
	createErr    error
	getErr       error
	updateErr    error
	parseRows    []service.ImportAdvisorRow
	parseErr     error
	importResult *dto.ImportAdvisorResponse
	importErr    error
	parsedBytes  int
}

func (m *mockAdvisorService) Create(_ context.Context, req *dto.CreateAdvisorRequest, _ string) (*dto.AdvisorResponse, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &dto.AdvisorResponse{ID: "adv-1", Name: req.Name, Email: req.Email}, nil
}
func (m *mockAdvisorService) GetByID(_ context.Context, id string) (*dto.AdvisorResponse, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return &dto.AdvisorResponse{ID: id}, nil
}
func (m *mockAdvisorService) List(_ context.Context, _ *dto.AdvisorListRequest) ([]dto.AdvisorResponse, int64, error) {
	return []dto.AdvisorResponse{}, 0, nil
}
func (m *mockAdvisorService) Update(_ context.Context, id string, _ *dto.UpdateAdvisorRequest, _ string) (*dto.AdvisorResponse, error) {
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	return &dto.AdvisorResponse{ID: id}, nil
}
func (m *mockAdvisorService) ParseImportFile(r io.Reader) ([]service.ImportAdvisorRow, error) {
	b, _ := io.ReadAll(r)
	m.parsedBytes = len(b)
	return m.parseRows, m.parseErr
}
func (m *mockAdvisorService) ImportAdvisors(_ context.Context, _ []service.ImportAdvisorRow, _ string) (*dto.ImportAdvisorResponse, error) {
	return m.importResult, m.importErr
}

// ── Mock ProposalService ──

type mockProposalService struct {
	submitResult *dto.SubmitProposalResponse
	submitErr    error
	listResult   []dto.ProposalResponse
	listErr      error
	lastStudent  string
}

func (m *mockProposalService) Submit(_ context.Context, studentID string, _ *dto.SubmitProposalRequest) (*dto.SubmitProposalResponse, error) {
	m.lastStudent = studentID
	return m.submitResult, m.submitErr
}
func (m *mockProposalService) List(_ context.Context, _ string) ([]dto.ProposalResponse, error) {
	return m.listResult, m.listErr
}

// ── Mock SelectionService ──

type mockSelectionService struct {
	chooseResult  *dto.ChooseAdvisorResponse
	chooseErr     error
	respondErr    error
	lastAdvisorID string
	lastDecision  string
}

func (m *mockSelectionService) ChooseAdvisor(_ context.Context, _, _ string) (*dto.ChooseAdvisorResponse, error) {
	return m.chooseResult, m.chooseErr
}
func (m *mockSelectionService) Respond(_ context.Context, advisorID, _, decision string) (*dto.MessageResponse, error) {
	m.lastAdvisorID = advisorID
	m.lastDecision = decision
	if m.respondErr != nil {
		return nil, m.respondErr
	}
	return &dto.MessageResponse{Message: "ok"}, nil
}

// ── Mock ManuscriptService ──

type mockManuscriptService struct {
	setErr     error
	voteResult *dto.VoteResultResponse
	voteErr    error
	resetErr   error
	tally      *dto.VoteTallyResponse
	lastRole   string
}

func (m *mockManuscriptService) SetStatus(_ context.Context, _, _, role, status string) (*dto.ManuscriptStatusResponse, error) {
	m.lastRole = role
	if m.setErr != nil {
		return nil, m.setErr
	}
	return &dto.ManuscriptStatusResponse{Status: status}, nil
}
func (m *mockManuscriptService) CastVote(_ context.Context, _, _, _ string) (*dto.VoteResultResponse, error) {
	return m.voteResult, m.voteErr
}
func (m *mockManuscriptService) ResetVotes(_ context.Context, _, _, role string) (*dto.ManuscriptStatusResponse, error) {
	m.lastRole = role
	if m.resetErr != nil {
		return nil, m.resetErr
	}
	return &dto.ManuscriptStatusResponse{Status: "ReadyToDefend"}, nil
}
func (m *mockManuscriptService) GetVoteTally(_ context.Context, _ string) (*dto.VoteTallyResponse, error) {
	return m.tally, nil
}

// ── Mock SynonymService ──

type mockSynonymService struct {
	createErr    error
	deleteErr    error
	expandResult *dto.ExpandResponse
	lastQuery    string
}

func (m *mockSynonymService) Create(_ context.Context, req *dto.CreateSynonymRequest, _ string) (*dto.SynonymResponse, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &dto.SynonymResponse{ID: "syn-1", Terms: req.Terms, Synonyms: req.Synonyms}, nil
}
func (m *mockSynonymService) List(_ context.Context, _ *dto.SynonymListRequest) ([]dto.SynonymResponse, int64, error) {
	return []dto.SynonymResponse{}, 0, nil
}
func (m *mockSynonymService) Delete(_ context.Context, _ string) error {
	return m.deleteErr
}
func (m *mockSynonymService) Expand(_ context.Context, q string) (*dto.ExpandResponse, error) {
	m.lastQuery = q
	return m.expandResult, nil
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

// withAuth 模拟 JWT 中间件注入身份
func withAuth(userID, role string, h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("role", role)
		h(c)
	}
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func serve(method, routePath, target string, body io.Reader, h gin.HandlerFunc) *httptest.ResponseRecorder {
	r := gin.New()
	r.Handle(method, routePath, h)

	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

// parseData 将响应中的 data 解析到 v
func parseData(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	var raw struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &raw); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	if err := json.Unmarshal(raw.Data, v); err != nil {
		t.Fatalf("解析 data 失败: %v, body=%s", err, w.Body.String())
	}
}

func assertStatus(t *testing.T, w *httptest.ResponseRecorder, status, code int) {
	t.Helper()
	if w.Code != status {
		t.Errorf("expected %d, got %d (body=%s)", status, w.Code, w.Body.String())
	}
	if resp := parseResponse(w); resp.Code != code {
		t.Errorf("expected code %d, got %d", code, resp.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// StudentHandler Tests
// ═══════════════════════════════════════════════════════════

func TestStudentHandler_Create_Success(t *testing.T) {
	mock := &mockStudentService{createResult: &dto.StudentResponse{ID: "stu-1", Name: "张三"}}
	h := NewStudentHandler(mock)

	w := serve("POST", "/students", "/students",
		jsonBody(dto.CreateStudentRequest{Name: "张三", Email: "zs@edu.cn"}),
		withAuth("admin-1", jwt.RoleAdmin, h.CreateStudent))

	assertStatus(t, w, http.StatusCreated, 0)
}

func TestStudentHandler_Create_BadJSON(t *testing.T) {
	h := NewStudentHandler(&mockStudentService{})

	w := serve("POST", "/students", "/students", bytes.NewReader([]byte("invalid json")),
		withAuth("admin-1", jwt.RoleAdmin, h.CreateStudent))

	assertStatus(t, w, http.StatusBadRequest, 10001)
}

func TestStudentHandler_Create_EmailExists(t *testing.T) {
	h := NewStudentHandler(&mockStudentService{createErr: service.ErrStudentEmailExists})

	w := serve("POST", "/students", "/students",
		jsonBody(dto.CreateStudentRequest{Name: "张三", Email: "zs@edu.cn"}),
		withAuth("admin-1", jwt.RoleAdmin, h.CreateStudent))

	assertStatus(t, w, http.StatusConflict, 20002)
}

func TestStudentHandler_Get_NotFound(t *testing.T) {
	h := NewStudentHandler(&mockStudentService{getErr: service.ErrStudentNotFound})

	w := serve("GET", "/students/:id", "/students/missing", nil,
		withAuth("admin-1", jwt.RoleAdmin, h.GetStudent))

	assertStatus(t, w, http.StatusNotFound, 20001)
}

func TestStudentHandler_List_Pagination(t *testing.T) {
	mock := &mockStudentService{
		listResult: []dto.StudentResponse{{ID: "stu-1"}, {ID: "stu-2"}},
		listTotal:  5,
	}
	h := NewStudentHandler(mock)

	w := serve("GET", "/students", "/students?page=1&page_size=2", nil,
		withAuth("admin-1", jwt.RoleAdmin, h.ListStudents))

	assertStatus(t, w, http.StatusOK, 0)
	var page struct {
		Pagination response.Pagination `json:"pagination"`
	}
	parseData(t, w, &page)
	if page.Pagination.TotalPages != 3 || page.Pagination.Total != 5 {
		t.Errorf("分页信息错误: %+v", page.Pagination)
	}
}

// ═══════════════════════════════════════════════════════════
// ProposalHandler Tests
// ═══════════════════════════════════════════════════════════

func TestProposalHandler_Submit_Self(t *testing.T) {
	mock := &mockProposalService{submitResult: &dto.SubmitProposalResponse{
		Proposal: dto.ProposalResponse{ID: "prop-1"},
		RankedAdvisors: []dto.AdvisorMatchResponse{
			{AdvisorID: "adv-ai", MatchPercentage: 100},
		},
	}}
	h := NewProposalHandler(mock)

	w := serve("POST", "/students/:id/proposals", "/students/stu-1/proposals",
		jsonBody(dto.SubmitProposalRequest{Title: "ML", Text: "machine learning"}),
		withAuth("stu-1", jwt.RoleStudent, h.SubmitProposal))

	assertStatus(t, w, http.StatusCreated, 0)
	if mock.lastStudent != "stu-1" {
		t.Errorf("expected student stu-1, got %s", mock.lastStudent)
	}
	var data dto.SubmitProposalResponse
	parseData(t, w, &data)
	if len(data.RankedAdvisors) != 1 || data.RankedAdvisors[0].MatchPercentage != 100 {
		t.Errorf("unexpected ranked advisors: %+v", data.RankedAdvisors)
	}
}

func TestProposalHandler_Submit_OtherStudentForbidden(t *testing.T) {
	mock := &mockProposalService{}
	h := NewProposalHandler(mock)

	w := serve("POST", "/students/:id/proposals", "/students/stu-2/proposals",
		jsonBody(dto.SubmitProposalRequest{Title: "ML", Text: "machine learning"}),
		withAuth("stu-1", jwt.RoleStudent, h.SubmitProposal))

	assertStatus(t, w, http.StatusForbidden, 10003)
	if mock.lastStudent != "" {
		t.Error("越权请求不应调用 service")
	}
}

func TestProposalHandler_Submit_NoCandidatesKeepsProposal(t *testing.T) {
	mock := &mockProposalService{
		submitResult: &dto.SubmitProposalResponse{
			Proposal:       dto.ProposalResponse{ID: "prop-1"},
			Terms:          []string{"quantum"},
			RankedAdvisors: []dto.AdvisorMatchResponse{},
		},
		submitErr: service.ErrNoMatchingAdvisors,
	}
	h := NewProposalHandler(mock)

	w := serve("POST", "/students/:id/proposals", "/students/stu-1/proposals",
		jsonBody(dto.SubmitProposalRequest{Title: "Q", Text: "quantum"}),
		withAuth("admin-1", jwt.RoleAdmin, h.SubmitProposal))

	assertStatus(t, w, http.StatusNotFound, 22001)
	var data dto.SubmitProposalResponse
	parseData(t, w, &data)
	if data.Proposal.ID != "prop-1" {
		t.Errorf("无候选时应返回已保存的开题，实际=%+v", data)
	}
}

func TestProposalHandler_List(t *testing.T) {
	mock := &mockProposalService{listResult: []dto.ProposalResponse{{ID: "prop-2"}, {ID: "prop-1"}}}
	h := NewProposalHandler(mock)

	w := serve("GET", "/students/:id/proposals", "/students/stu-1/proposals", nil,
		withAuth("adv-1", jwt.RoleAdvisor, h.ListProposals))

	assertStatus(t, w, http.StatusOK, 0)
}

// ═══════════════════════════════════════════════════════════
// SelectionHandler Tests
// ═══════════════════════════════════════════════════════════

func TestSelectionHandler_ChooseAdvisor_Success(t *testing.T) {
	mock := &mockSelectionService{chooseResult: &dto.ChooseAdvisorResponse{
		Advisor:   dto.AdvisorResponse{ID: "adv-1"},
		Panelists: []dto.PanelistResponse{{AdvisorID: "adv-2", Role: "SubjectExpert"}},
	}}
	h := NewSelectionHandler(mock)

	w := serve("POST", "/students/:id/advisor", "/students/stu-1/advisor",
		jsonBody(dto.ChooseAdvisorRequest{AdvisorID: "adv-1"}),
		withAuth("stu-1", jwt.RoleStudent, h.ChooseAdvisor))

	assertStatus(t, w, http.StatusOK, 0)
}

func TestSelectionHandler_ChooseAdvisor_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   int
	}{
		{"已选择导师", service.ErrAdvisorAlreadyChosen, http.StatusConflict, 22003},
		{"曾被拒绝", service.ErrAdvisorPreviouslyDeclined, http.StatusConflict, 22004},
		{"未审核", service.ErrAdvisorNotApproved, http.StatusConflict, 22005},
		{"名额已满", service.ErrAdvisorAtCapacity, http.StatusConflict, 22006},
		{"导师不存在", service.ErrAdvisorNotFound, http.StatusNotFound, 21001},
		{"乐观锁冲突", pkgerrors.ErrOptimisticLock, http.StatusConflict, 10007},
		{"未知错误", errors.New("db down"), http.StatusInternalServerError, 50000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewSelectionHandler(&mockSelectionService{chooseErr: tt.err})
			w := serve("POST", "/students/:id/advisor", "/students/stu-1/advisor",
				jsonBody(dto.ChooseAdvisorRequest{AdvisorID: "adv-1"}),
				withAuth("stu-1", jwt.RoleStudent, h.ChooseAdvisor))
			assertStatus(t, w, tt.status, tt.code)
		})
	}
}

func TestSelectionHandler_Respond_UsesCallerAsAdvisor(t *testing.T) {
	mock := &mockSelectionService{}
	h := NewSelectionHandler(mock)

	w := serve("POST", "/advisor-requests/:studentId/respond", "/advisor-requests/stu-1/respond",
		jsonBody(dto.RespondRequest{Decision: dto.DecisionAccepted}),
		withAuth("adv-1", jwt.RoleAdvisor, h.Respond))

	assertStatus(t, w, http.StatusOK, 0)
	if mock.lastAdvisorID != "adv-1" || mock.lastDecision != dto.DecisionAccepted {
		t.Errorf("expected adv-1/accepted, got %s/%s", mock.lastAdvisorID, mock.lastDecision)
	}
}

func TestSelectionHandler_Respond_InvalidDecision(t *testing.T) {
	h := NewSelectionHandler(&mockSelectionService{})

	w := serve("POST", "/advisor-requests/:studentId/respond", "/advisor-requests/stu-1/respond",
		jsonBody(map[string]string{"decision": "maybe"}),
		withAuth("adv-1", jwt.RoleAdvisor, h.Respond))

	assertStatus(t, w, http.StatusBadRequest, 10001)
}

func TestSelectionHandler_Respond_CapacityExceeded(t *testing.T) {
	h := NewSelectionHandler(&mockSelectionService{respondErr: service.ErrCapacityExceeded})

	w := serve("POST", "/advisor-requests/:studentId/respond", "/advisor-requests/stu-1/respond",
		jsonBody(dto.RespondRequest{Decision: dto.DecisionAccepted}),
		withAuth("adv-1", jwt.RoleAdvisor, h.Respond))

	assertStatus(t, w, http.StatusConflict, 22008)
}

// ═══════════════════════════════════════════════════════════
// ManuscriptHandler Tests
// ═══════════════════════════════════════════════════════════

func TestManuscriptHandler_CastVote_Transitioned(t *testing.T) {
	mock := &mockManuscriptService{voteResult: &dto.VoteResultResponse{
		Status: "RevisionByPanel", Target: "RevisionByPanel", Votes: 4, Threshold: 4, Transitioned: true,
	}}
	h := NewManuscriptHandler(mock)

	w := serve("POST", "/students/:id/votes", "/students/stu-1/votes",
		jsonBody(dto.CastVoteRequest{Target: "RevisionByPanel"}),
		withAuth("adv-4", jwt.RoleAdvisor, h.CastVote))

	assertStatus(t, w, http.StatusOK, 0)
	var data dto.VoteResultResponse
	parseData(t, w, &data)
	if !data.Transitioned || data.Status != "RevisionByPanel" {
		t.Errorf("unexpected vote result: %+v", data)
	}
}

func TestManuscriptHandler_CastVote_RejectedCarriesRemaining(t *testing.T) {
	mock := &mockManuscriptService{
		voteResult: &dto.VoteResultResponse{
			Status: "ReadyToDefend", Target: "ApprovedByPanel", Votes: 3, Threshold: 5, RemainingVotes: 2,
		},
		voteErr: service.ErrAlreadyVoted,
	}
	h := NewManuscriptHandler(mock)

	w := serve("POST", "/students/:id/votes", "/students/stu-1/votes",
		jsonBody(dto.CastVoteRequest{Target: "ApprovedByPanel"}),
		withAuth("adv-1", jwt.RoleAdvisor, h.CastVote))

	assertStatus(t, w, http.StatusConflict, 23005)
	var data dto.VoteResultResponse
	parseData(t, w, &data)
	if data.RemainingVotes != 2 {
		t.Errorf("expected remaining 2, got %d", data.RemainingVotes)
	}
}

func TestManuscriptHandler_CastVote_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   int
	}{
		{"非答辩委员", service.ErrNotPanelist, http.StatusForbidden, 23006},
		{"非导师", service.ErrVoterNotAdvisor, http.StatusForbidden, 23007},
		{"未待答辩", service.ErrNotReadyToDefend, http.StatusConflict, 23004},
		{"学生不存在", service.ErrStudentNotFound, http.StatusNotFound, 20001},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewManuscriptHandler(&mockManuscriptService{voteErr: tt.err})
			w := serve("POST", "/students/:id/votes", "/students/stu-1/votes",
				jsonBody(dto.CastVoteRequest{Target: "RevisionByPanel"}),
				withAuth("adv-1", jwt.RoleAdvisor, h.CastVote))
			assertStatus(t, w, tt.status, tt.code)
		})
	}
}

func TestManuscriptHandler_SetStatus(t *testing.T) {
	mock := &mockManuscriptService{}
	h := NewManuscriptHandler(mock)

	w := serve("PUT", "/students/:id/manuscript-status", "/students/stu-1/manuscript-status",
		jsonBody(dto.SetManuscriptStatusRequest{Status: "ReadyToDefend"}),
		withAuth("adv-1", jwt.RoleAdvisor, h.SetStatus))
	assertStatus(t, w, http.StatusOK, 0)
	if mock.lastRole != jwt.RoleAdvisor {
		t.Errorf("应透传调用者角色，实际=%s", mock.lastRole)
	}

	// 面板状态只能通过投票进入
	w = serve("PUT", "/students/:id/manuscript-status", "/students/stu-1/manuscript-status",
		jsonBody(map[string]string{"status": "ApprovedByPanel"}),
		withAuth("adv-1", jwt.RoleAdvisor, h.SetStatus))
	assertStatus(t, w, http.StatusBadRequest, 10001)

	h = NewManuscriptHandler(&mockManuscriptService{setErr: service.ErrNotAssignedAdvisor})
	w = serve("PUT", "/students/:id/manuscript-status", "/students/stu-1/manuscript-status",
		jsonBody(dto.SetManuscriptStatusRequest{Status: "RevisionByAdvisor"}),
		withAuth("adv-9", jwt.RoleAdvisor, h.SetStatus))
	assertStatus(t, w, http.StatusForbidden, 23002)
}

func TestManuscriptHandler_ResetVotes(t *testing.T) {
	mock := &mockManuscriptService{}
	h := NewManuscriptHandler(mock)

	w := serve("DELETE", "/students/:id/votes", "/students/stu-1/votes", nil,
		withAuth("admin-1", jwt.RoleAdmin, h.ResetVotes))

	assertStatus(t, w, http.StatusOK, 0)
	var data dto.ManuscriptStatusResponse
	parseData(t, w, &data)
	if data.Status != "ReadyToDefend" {
		t.Errorf("expected ReadyToDefend, got %s", data.Status)
	}
}

// ═══════════════════════════════════════════════════════════
// SynonymHandler Tests
// ═══════════════════════════════════════════════════════════

func TestSynonymHandler_Expand(t *testing.T) {
	mock := &mockSynonymService{expandResult: &dto.ExpandResponse{Terms: []string{"ai", "machine learning", "ml"}}}
	h := NewSynonymHandler(mock)

	w := serve("GET", "/synonyms/expand", "/synonyms/expand?q=machine+learning", nil,
		withAuth("stu-1", jwt.RoleStudent, h.Expand))

	assertStatus(t, w, http.StatusOK, 0)
	if mock.lastQuery != "machine learning" {
		t.Errorf("expected query 'machine learning', got %q", mock.lastQuery)
	}
}

func TestSynonymHandler_Expand_MissingQuery(t *testing.T) {
	h := NewSynonymHandler(&mockSynonymService{})

	w := serve("GET", "/synonyms/expand", "/synonyms/expand", nil,
		withAuth("stu-1", jwt.RoleStudent, h.Expand))

	assertStatus(t, w, http.StatusBadRequest, 10001)
}

func TestSynonymHandler_Create_EmptyTerms(t *testing.T) {
	h := NewSynonymHandler(&mockSynonymService{createErr: service.ErrSynonymEmptyTerms})

	w := serve("POST", "/synonyms", "/synonyms",
		jsonBody(dto.CreateSynonymRequest{Terms: []string{"--"}, Synonyms: []string{"ml"}}),
		withAuth("admin-1", jwt.RoleAdmin, h.CreateSynonym))

	assertStatus(t, w, http.StatusBadRequest, 24002)
}

func TestSynonymHandler_Delete_NotFound(t *testing.T) {
	h := NewSynonymHandler(&mockSynonymService{deleteErr: service.ErrSynonymNotFound})

	w := serve("DELETE", "/synonyms/:id", "/synonyms/syn-x", nil,
		withAuth("admin-1", jwt.RoleAdmin, h.DeleteSynonym))

	assertStatus(t, w, http.StatusNotFound, 24001)
}

// ═══════════════════════════════════════════════════════════
// AdvisorHandler Tests
// ═══════════════════════════════════════════════════════════

func multipartUpload(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("创建表单文件失败: %v", err)
		}
		part.Write(content)
	}
	mw.Close()
	return body, mw.FormDataContentType()
}

func serveImport(t *testing.T, h *AdvisorHandler, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartUpload(t, filename, content)

	r := gin.New()
	r.POST("/advisors/import", withAuth("admin-1", jwt.RoleAdmin, h.ImportAdvisors))

	req := httptest.NewRequest("POST", "/advisors/import", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAdvisorHandler_Import_Success(t *testing.T) {
	mock := &mockAdvisorService{
		parseRows:    []service.ImportAdvisorRow{{Row: 2, Name: "王老师"}},
		importResult: &dto.ImportAdvisorResponse{Total: 1, Success: 1},
	}
	h := NewAdvisorHandler(mock, 1<<20)

	w := serveImport(t, h, "advisors.xlsx", []byte("fake-xlsx"))

	assertStatus(t, w, http.StatusOK, 0)
	if mock.parsedBytes != len("fake-xlsx") {
		t.Errorf("文件内容应传给解析器，实际读取 %d 字节", mock.parsedBytes)
	}
}

func TestAdvisorHandler_Import_Errors(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		parseErr error
		limit    int64
		status   int
		code     int
	}{
		{"缺少文件", "", nil, 1 << 20, http.StatusBadRequest, 21004},
		{"扩展名错误", "advisors.csv", nil, 1 << 20, http.StatusBadRequest, 21005},
		{"表头错误", "advisors.xlsx", service.ErrImportBadHeader, 1 << 20, http.StatusBadRequest, 21006},
		{"行数超限", "advisors.xlsx", &service.ErrImportTooManyRows{Limit: 500}, 1 << 20, http.StatusBadRequest, 21007},
		{"文件过大", "advisors.xlsx", nil, 512, http.StatusRequestEntityTooLarge, 10005},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAdvisorHandler(&mockAdvisorService{parseErr: tt.parseErr}, tt.limit)
			w := serveImport(t, h, tt.filename, bytes.Repeat([]byte("x"), 4096))
			assertStatus(t, w, tt.status, tt.code)
		})
	}
}

func TestAdvisorHandler_Update_CapacityBelowCount(t *testing.T) {
	h := NewAdvisorHandler(&mockAdvisorService{updateErr: service.ErrCapacityBelowCount}, 0)

	w := serve("PUT", "/advisors/:id", "/advisors/adv-1",
		jsonBody(map[string]int{"capacity": 1}),
		withAuth("admin-1", jwt.RoleAdmin, h.UpdateAdvisor))

	assertStatus(t, w, http.StatusConflict, 21003)
}

func TestHandleKindError_Fallback(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   int
	}{
		{fmt.Errorf("%w: 其他资源", pkgerrors.ErrNotFound), http.StatusNotFound, 10006},
		{fmt.Errorf("%w: 其他条件", pkgerrors.ErrPrecondition), http.StatusConflict, 10008},
		{fmt.Errorf("%w: 空结果", pkgerrors.ErrNoCandidates), http.StatusNotFound, 10009},
		{errors.New("boom"), http.StatusInternalServerError, 50000},
	}
	for _, tt := range tests {
		w := serve("GET", "/x", "/x", nil, func(c *gin.Context) { handleKindError(c, tt.err) })
		assertStatus(t, w, tt.status, tt.code)
	}
}
