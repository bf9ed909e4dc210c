package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"thesis-hub/backend/internal/model"
	"thesis-hub/backend/internal/repository"
	pkgerrors "thesis-hub/backend/pkg/errors"
)

// mockStore 所有 mock repository 共享的内存存储
// 读操作返回副本，模拟数据库读出的独立对象
type mockStore struct {
	mu sync.Mutex

	students     map[string]*model.Student
	studentOrder []string
	advisors     map[string]*model.Advisor
	advisorOrder []string
	proposals    []model.Proposal
	synonyms     []model.SynonymEntry
	declined     map[string][]model.StudentDeclinedAdvisor
	panelists    map[string][]model.StudentPanelist
	accepted     map[string][]model.AdvisorAcceptedStudent
	votes        []model.ManuscriptVote

	seq             int
	synonymFindHits int

	// beforeAdvisorUpdate 在写入前执行，用于模拟读取与写入之间的并发修改
	beforeAdvisorUpdate func()
}

func newMockRepository() (*repository.Repository, *mockStore) {
	st := &mockStore{
		students:  make(map[string]*model.Student),
		advisors:  make(map[string]*model.Advisor),
		declined:  make(map[string][]model.StudentDeclinedAdvisor),
		panelists: make(map[string][]model.StudentPanelist),
		accepted:  make(map[string][]model.AdvisorAcceptedStudent),
	}
	repo := &repository.Repository{
		Student:  &mockStudentRepo{st: st},
		Advisor:  &mockAdvisorRepo{st: st},
		Proposal: &mockProposalRepo{st: st},
		Synonym:  &mockSynonymRepo{st: st},
		Vote:     &mockVoteRepo{st: st},
	}
	return repo, st
}

func (st *mockStore) nextID(prefix string) string {
	st.seq++
	return fmt.Sprintf("%s-%03d", prefix, st.seq)
}

// ── 测试数据构造 ──

func (st *mockStore) addStudent(id, name string) *model.Student {
	st.mu.Lock()
	defer st.mu.Unlock()
	s := &model.Student{
		StudentID:        id,
		Name:             name,
		Email:            id + "@test.edu",
		AdvisorStatus:    model.AdvisorStatusNone,
		ManuscriptStatus: model.ManuscriptStatusNone,
	}
	s.Version = 1
	st.students[id] = s
	st.studentOrder = append(st.studentOrder, id)
	return s
}

func (st *mockStore) addAdvisor(id, role string, capacity *int, specs ...string) *model.Advisor {
	st.mu.Lock()
	defer st.mu.Unlock()
	a := &model.Advisor{
		AdvisorID:       id,
		Name:            "导师" + id,
		Email:           id + "@test.edu",
		Specializations: datatypes.JSONSlice[string](specs),
		Role:            role,
		Capacity:        capacity,
		IsApproved:      true,
	}
	a.Version = 1
	st.advisors[id] = a
	st.advisorOrder = append(st.advisorOrder, id)
	return a
}

func (st *mockStore) addSynonym(terms []string, synonyms []string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.synonyms = append(st.synonyms, model.SynonymEntry{
		EntryID:  st.nextID("syn"),
		Terms:    datatypes.JSONSlice[string](terms),
		Synonyms: datatypes.JSONSlice[string](synonyms),
	})
}

func (st *mockStore) addProposal(studentID, title, text string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.seq++
	st.proposals = append(st.proposals, model.Proposal{
		ProposalID:  fmt.Sprintf("prop-%03d", st.seq),
		StudentID:   studentID,
		Title:       title,
		Text:        text,
		SubmittedAt: time.Date(2025, 1, 1, 0, 0, st.seq, 0, time.UTC),
	})
}

// acceptDirect 直接写入接收记录（构造“名额已满”场景）
func (st *mockStore) acceptDirect(advisorID, studentID string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.accepted[advisorID] = append(st.accepted[advisorID], model.AdvisorAcceptedStudent{AdvisorID: advisorID, StudentID: studentID})
	st.advisors[advisorID].AcceptedCount++
}

// ── 副本 ──

func (st *mockStore) advisorCopy(id string) *model.Advisor {
	src, ok := st.advisors[id]
	if !ok {
		return nil
	}
	a := *src
	a.Specializations = append(datatypes.JSONSlice[string](nil), src.Specializations...)
	if src.Capacity != nil {
		c := *src.Capacity
		a.Capacity = &c
	}
	a.AcceptedStudents = append([]model.AdvisorAcceptedStudent(nil), st.accepted[id]...)
	return &a
}

func (st *mockStore) studentCopy(id string) *model.Student {
	src, ok := st.students[id]
	if !ok {
		return nil
	}
	s := *src
	if src.ChosenAdvisorID != nil {
		chosen := *src.ChosenAdvisorID
		s.ChosenAdvisorID = &chosen
		s.ChosenAdvisor = st.advisorCopy(chosen)
	}
	s.DeclinedAdvisors = append([]model.StudentDeclinedAdvisor(nil), st.declined[id]...)
	s.Panelists = st.panelistCopies(id)
	return &s
}

func (st *mockStore) panelistCopies(studentID string) []model.StudentPanelist {
	panel := make([]model.StudentPanelist, 0, len(st.panelists[studentID]))
	for _, p := range st.panelists[studentID] {
		p.Advisor = st.advisorCopy(p.AdvisorID)
		panel = append(panel, p)
	}
	sort.SliceStable(panel, func(i, j int) bool { return panel[i].Position < panel[j].Position })
	return panel
}

// ── Mock StudentRepository ──

type mockStudentRepo struct {
	st *mockStore
}

func (m *mockStudentRepo) Create(_ context.Context, student *model.Student) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if student.StudentID == "" {
		student.StudentID = m.st.nextID("stu")
	}
	student.Version = 1
	student.CreatedAt = time.Now()
	s := *student
	m.st.students[s.StudentID] = &s
	m.st.studentOrder = append(m.st.studentOrder, s.StudentID)
	return nil
}

func (m *mockStudentRepo) GetByID(_ context.Context, id string) (*model.Student, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if s := m.st.studentCopy(id); s != nil {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentRepo) GetByEmail(_ context.Context, email string) (*model.Student, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	for id, s := range m.st.students {
		if s.Email == email {
			return m.st.studentCopy(id), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentRepo) List(_ context.Context, offset, limit int) ([]model.Student, int64, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var result []model.Student
	for i, id := range m.st.studentOrder {
		if i < offset || len(result) >= limit {
			continue
		}
		result = append(result, *m.st.studentCopy(id))
	}
	return result, int64(len(m.st.studentOrder)), nil
}

func (m *mockStudentRepo) UpdateAdvisorSelection(_ context.Context, student *model.Student) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	stored, ok := m.st.students[student.StudentID]
	if !ok || stored.Version != student.Version {
		return pkgerrors.ErrOptimisticLock
	}
	if student.ChosenAdvisorID != nil {
		chosen := *student.ChosenAdvisorID
		stored.ChosenAdvisorID = &chosen
	} else {
		stored.ChosenAdvisorID = nil
	}
	stored.AdvisorStatus = student.AdvisorStatus
	stored.Version++
	student.Version = stored.Version
	return nil
}

func (m *mockStudentRepo) AddDeclinedAdvisor(_ context.Context, studentID, advisorID string) (bool, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	for _, d := range m.st.declined[studentID] {
		if d.AdvisorID == advisorID {
			return false, nil
		}
	}
	m.st.declined[studentID] = append(m.st.declined[studentID], model.StudentDeclinedAdvisor{
		StudentID: studentID, AdvisorID: advisorID, DeclinedAt: time.Now(),
	})
	return true, nil
}

func (m *mockStudentRepo) ClaimPanelAssignment(_ context.Context, studentID string, at time.Time) (bool, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	s, ok := m.st.students[studentID]
	if !ok || s.PanelAssignedAt != nil {
		return false, nil
	}
	s.PanelAssignedAt = &at
	return true, nil
}

func (m *mockStudentRepo) AddPanelists(_ context.Context, panelists []model.StudentPanelist) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	for _, p := range panelists {
		dup := false
		for _, existing := range m.st.panelists[p.StudentID] {
			if existing.AdvisorID == p.AdvisorID {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		p.Advisor = nil
		m.st.panelists[p.StudentID] = append(m.st.panelists[p.StudentID], p)
	}
	return nil
}

func (m *mockStudentRepo) ListPanelists(_ context.Context, studentID string) ([]model.StudentPanelist, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	return m.st.panelistCopies(studentID), nil
}

func (m *mockStudentRepo) SetManuscriptStatus(_ context.Context, studentID, status string) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if s, ok := m.st.students[studentID]; ok {
		s.ManuscriptStatus = status
	}
	return nil
}

func (m *mockStudentRepo) TransitionManuscriptStatus(_ context.Context, studentID, from, to string) (bool, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	s, ok := m.st.students[studentID]
	if !ok || s.ManuscriptStatus != from {
		return false, nil
	}
	s.ManuscriptStatus = to
	return true, nil
}

// ── Mock AdvisorRepository ──

type mockAdvisorRepo struct {
	st *mockStore
}

func (m *mockAdvisorRepo) Create(_ context.Context, advisor *model.Advisor) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	for _, a := range m.st.advisors {
		if a.Email == advisor.Email {
			return errors.New("duplicate key value violates unique constraint")
		}
	}
	if advisor.AdvisorID == "" {
		advisor.AdvisorID = m.st.nextID("adv")
	}
	advisor.Version = 1
	a := *advisor
	m.st.advisors[a.AdvisorID] = &a
	m.st.advisorOrder = append(m.st.advisorOrder, a.AdvisorID)
	return nil
}

func (m *mockAdvisorRepo) GetByID(_ context.Context, id string) (*model.Advisor, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if a := m.st.advisorCopy(id); a != nil {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAdvisorRepo) GetByEmail(_ context.Context, email string) (*model.Advisor, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	for id, a := range m.st.advisors {
		if a.Email == email {
			return m.st.advisorCopy(id), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAdvisorRepo) List(_ context.Context, offset, limit int) ([]model.Advisor, int64, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var result []model.Advisor
	for i, id := range m.st.advisorOrder {
		if i < offset || len(result) >= limit {
			continue
		}
		result = append(result, *m.st.advisorCopy(id))
	}
	return result, int64(len(m.st.advisorOrder)), nil
}

func (m *mockAdvisorRepo) ListApproved(_ context.Context) ([]model.Advisor, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var result []model.Advisor
	for _, id := range m.st.advisorOrder {
		if m.st.advisors[id].IsApproved {
			result = append(result, *m.st.advisorCopy(id))
		}
	}
	return result, nil
}

func (m *mockAdvisorRepo) Update(_ context.Context, advisor *model.Advisor) error {
	if m.st.beforeAdvisorUpdate != nil {
		m.st.beforeAdvisorUpdate()
	}
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	stored, ok := m.st.advisors[advisor.AdvisorID]
	if !ok || stored.Version != advisor.Version {
		return pkgerrors.ErrOptimisticLock
	}
	if advisor.Capacity != nil && stored.AcceptedCount > *advisor.Capacity {
		return pkgerrors.ErrCapacityExceeded
	}
	stored.Name = advisor.Name
	stored.Specializations = append(datatypes.JSONSlice[string](nil), advisor.Specializations...)
	stored.Role = advisor.Role
	stored.Capacity = advisor.Capacity
	stored.IsApproved = advisor.IsApproved
	stored.Version++
	advisor.Version = stored.Version
	return nil
}

func (m *mockAdvisorRepo) AcceptStudent(_ context.Context, advisorID, studentID string) (bool, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	a, ok := m.st.advisors[advisorID]
	if !ok {
		return false, gorm.ErrRecordNotFound
	}
	for _, acc := range m.st.accepted[advisorID] {
		if acc.StudentID == studentID {
			return false, nil
		}
	}
	if a.Capacity != nil && a.AcceptedCount >= *a.Capacity {
		return false, pkgerrors.ErrCapacityExceeded
	}
	m.st.accepted[advisorID] = append(m.st.accepted[advisorID], model.AdvisorAcceptedStudent{
		AdvisorID: advisorID, StudentID: studentID, AcceptedAt: time.Now(),
	})
	a.AcceptedCount++
	return true, nil
}

// ── Mock ProposalRepository ──

type mockProposalRepo struct {
	st *mockStore
}

func (m *mockProposalRepo) Create(_ context.Context, proposal *model.Proposal) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	m.st.seq++
	if proposal.ProposalID == "" {
		proposal.ProposalID = fmt.Sprintf("prop-%03d", m.st.seq)
	}
	if proposal.SubmittedAt.IsZero() {
		proposal.SubmittedAt = time.Date(2025, 1, 1, 0, 0, m.st.seq, 0, time.UTC)
	}
	m.st.proposals = append(m.st.proposals, *proposal)
	return nil
}

func (m *mockProposalRepo) ListByStudent(_ context.Context, studentID string) ([]model.Proposal, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var result []model.Proposal
	for i := len(m.st.proposals) - 1; i >= 0; i-- {
		if m.st.proposals[i].StudentID == studentID {
			result = append(result, m.st.proposals[i])
		}
	}
	return result, nil
}

func (m *mockProposalRepo) GetLatestByStudent(ctx context.Context, studentID string) (*model.Proposal, error) {
	list, _ := m.ListByStudent(ctx, studentID)
	if len(list) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &list[0], nil
}

// ── Mock SynonymRepository ──

type mockSynonymRepo struct {
	st *mockStore
}

func (m *mockSynonymRepo) Create(_ context.Context, entry *model.SynonymEntry) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if entry.EntryID == "" {
		entry.EntryID = m.st.nextID("syn")
	}
	m.st.synonyms = append(m.st.synonyms, *entry)
	return nil
}

func (m *mockSynonymRepo) GetByID(_ context.Context, id string) (*model.SynonymEntry, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	for i := range m.st.synonyms {
		if m.st.synonyms[i].EntryID == id {
			e := m.st.synonyms[i]
			return &e, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// FindByTerms 与 synonym_terms 索引一致：按规范化后的词条匹配
func (m *mockSynonymRepo) FindByTerms(_ context.Context, terms []string) ([]model.SynonymEntry, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	m.st.synonymFindHits++
	want := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		want[t] = struct{}{}
	}
	var result []model.SynonymEntry
	for _, e := range m.st.synonyms {
		for _, t := range e.Terms {
			if _, ok := want[normalizeTerm(t)]; ok {
				result = append(result, e)
				break
			}
		}
	}
	return result, nil
}

func (m *mockSynonymRepo) List(_ context.Context, offset, limit int) ([]model.SynonymEntry, int64, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var result []model.SynonymEntry
	for i, e := range m.st.synonyms {
		if i < offset || len(result) >= limit {
			continue
		}
		result = append(result, e)
	}
	return result, int64(len(m.st.synonyms)), nil
}

func (m *mockSynonymRepo) Delete(_ context.Context, id string) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	for i := range m.st.synonyms {
		if m.st.synonyms[i].EntryID == id {
			m.st.synonyms = append(m.st.synonyms[:i], m.st.synonyms[i+1:]...)
			return nil
		}
	}
	return nil
}

// ── Mock VoteRepository ──

type mockVoteRepo struct {
	st *mockStore
}

func (m *mockVoteRepo) Add(_ context.Context, vote *model.ManuscriptVote) (bool, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	for _, v := range m.st.votes {
		if v.StudentID == vote.StudentID && v.TargetStatus == vote.TargetStatus && v.VoterID == vote.VoterID {
			return false, nil
		}
	}
	m.st.votes = append(m.st.votes, *vote)
	return true, nil
}

func (m *mockVoteRepo) CountByTarget(_ context.Context, studentID, targetStatus string) (int64, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var n int64
	for _, v := range m.st.votes {
		if v.StudentID == studentID && v.TargetStatus == targetStatus {
			n++
		}
	}
	return n, nil
}

func (m *mockVoteRepo) ListByStudent(_ context.Context, studentID string) ([]model.ManuscriptVote, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var result []model.ManuscriptVote
	for _, v := range m.st.votes {
		if v.StudentID == studentID {
			result = append(result, v)
		}
	}
	return result, nil
}

func (m *mockVoteRepo) DeleteByStudent(_ context.Context, studentID string) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	kept := m.st.votes[:0]
	for _, v := range m.st.votes {
		if v.StudentID != studentID {
			kept = append(kept, v)
		}
	}
	m.st.votes = kept
	return nil
}

// ── Mock SynonymCache ──

type mockSynonymCache struct {
	mu          sync.Mutex
	data        map[string][]string
	failGet     bool
	invalidated []string
}

func newMockSynonymCache() *mockSynonymCache {
	return &mockSynonymCache{data: make(map[string][]string)}
}

func (c *mockSynonymCache) GetSynonyms(_ context.Context, terms []string) (map[string][]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGet {
		return nil, errors.New("redis: connection refused")
	}
	hits := make(map[string][]string)
	for _, t := range terms {
		if s, ok := c.data[t]; ok {
			hits[t] = s
		}
	}
	return hits, nil
}

func (c *mockSynonymCache) SetSynonyms(_ context.Context, entries map[string][]string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for t, s := range entries {
		c.data[t] = s
	}
	return nil
}

func (c *mockSynonymCache) InvalidateSynonyms(_ context.Context, terms []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range terms {
		delete(c.data, t)
		c.invalidated = append(c.invalidated, t)
	}
	return nil
}
