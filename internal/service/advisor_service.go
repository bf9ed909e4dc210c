package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"thesis-hub/backend/config"
	"thesis-hub/backend/internal/dto"
	"thesis-hub/backend/internal/model"
	"thesis-hub/backend/internal/repository"
	pkgerrors "thesis-hub/backend/pkg/errors"
)

// ── 导师模块业务错误 ──

var (
	ErrAdvisorNotFound    = fmt.Errorf("%w: 导师不存在", pkgerrors.ErrNotFound)
	ErrAdvisorEmailExists = fmt.Errorf("%w: 邮箱已被使用", pkgerrors.ErrPrecondition)
	ErrCapacityBelowCount = fmt.Errorf("%w: 名额不能小于已接收学生数", pkgerrors.ErrPrecondition)

	ErrImportUnreadable = errors.New("无法解析Excel文件")
	ErrImportNoData     = errors.New("Excel文件无数据行（第一行为表头）")
	ErrImportBadHeader  = errors.New("Excel表头缺少必要列（姓名/邮箱/研究方向）")
)

// ErrImportTooManyRows 导入行数超过上限
type ErrImportTooManyRows struct {
	Limit int
}

func (e *ErrImportTooManyRows) Error() string {
	return fmt.Sprintf("数据行数超过上限 %d 行", e.Limit)
}

// AdvisorService 导师业务接口
type AdvisorService interface {
	Create(ctx context.Context, req *dto.CreateAdvisorRequest, callerID string) (*dto.AdvisorResponse, error)
	GetByID(ctx context.Context, id string) (*dto.AdvisorResponse, error)
	List(ctx context.Context, req *dto.AdvisorListRequest) ([]dto.AdvisorResponse, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdateAdvisorRequest, callerID string) (*dto.AdvisorResponse, error)
	ParseImportFile(reader io.Reader) ([]ImportAdvisorRow, error)
	ImportAdvisors(ctx context.Context, rows []ImportAdvisorRow, callerID string) (*dto.ImportAdvisorResponse, error)
}

// ImportAdvisorRow Excel 导入解析后的单行数据
type ImportAdvisorRow struct {
	Row             int
	Name            string
	Email           string
	Specializations []string
	Role            string
	Capacity        string
	Approved        string
}

type advisorService struct {
	repo   *repository.Repository
	cfg    *config.ImportConfig
	logger *zap.Logger
}

// NewAdvisorService 创建 AdvisorService 实例
func NewAdvisorService(cfg *config.ImportConfig, repo *repository.Repository, logger *zap.Logger) AdvisorService {
	return &advisorService{repo: repo, cfg: cfg, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *advisorService) Create(ctx context.Context, req *dto.CreateAdvisorRequest, callerID string) (*dto.AdvisorResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := s.repo.Advisor.GetByEmail(ctx, email); err == nil {
		return nil, ErrAdvisorEmailExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	approved := true
	if req.IsApproved != nil {
		approved = *req.IsApproved
	}

	advisor := &model.Advisor{
		Name:            strings.TrimSpace(req.Name),
		Email:           email,
		Specializations: datatypes.JSONSlice[string](cleanSpecializations(req.Specializations)),
		Role:            req.Role,
		Capacity:        req.Capacity,
		IsApproved:      approved,
	}
	if callerID != "" {
		advisor.CreatedBy = &callerID
	}

	if err := s.repo.Advisor.Create(ctx, advisor); err != nil {
		s.logger.Error("创建导师失败", zap.Error(err))
		return nil, err
	}

	return toAdvisorResponse(advisor), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *advisorService) GetByID(ctx context.Context, id string) (*dto.AdvisorResponse, error) {
	advisor, err := s.repo.Advisor.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAdvisorNotFound
		}
		s.logger.Error("查询导师失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toAdvisorResponse(advisor), nil
}

// ────────────────────── List ──────────────────────

func (s *advisorService) List(ctx context.Context, req *dto.AdvisorListRequest) ([]dto.AdvisorResponse, int64, error) {
	advisors, total, err := s.repo.Advisor.List(ctx, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出导师失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.AdvisorResponse, 0, len(advisors))
	for i := range advisors {
		result = append(result, *toAdvisorResponse(&advisors[i]))
	}
	return result, total, nil
}

// ────────────────────── Update ──────────────────────

func (s *advisorService) Update(ctx context.Context, id string, req *dto.UpdateAdvisorRequest, callerID string) (*dto.AdvisorResponse, error) {
	advisor, err := s.repo.Advisor.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAdvisorNotFound
		}
		s.logger.Error("查询导师失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if req.Name != nil {
		advisor.Name = strings.TrimSpace(*req.Name)
	}
	if req.Specializations != nil {
		advisor.Specializations = datatypes.JSONSlice[string](cleanSpecializations(req.Specializations))
	}
	if req.Role != nil {
		advisor.Role = *req.Role
	}
	if req.ClearCapacity {
		advisor.Capacity = nil
	} else if req.Capacity != nil {
		// 名额下调不能低于已接收人数
		if *req.Capacity < advisor.AcceptedCount {
			return nil, ErrCapacityBelowCount
		}
		advisor.Capacity = req.Capacity
	}
	if req.IsApproved != nil {
		advisor.IsApproved = *req.IsApproved
	}
	advisor.UpdatedBy = &callerID

	if err := s.repo.Advisor.Update(ctx, advisor); err != nil {
		// 读取之后有学生被接收，名额已低于最新人数
		if errors.Is(err, pkgerrors.ErrCapacityExceeded) {
			return nil, ErrCapacityBelowCount
		}
		s.logger.Error("更新导师失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return toAdvisorResponse(advisor), nil
}

// ────────────────────── ParseImportFile ──────────────────────

// ParseImportFile 解析导师名册 Excel，表头支持中英文且列序不限
func (s *advisorService) ParseImportFile(reader io.Reader) ([]ImportAdvisorRow, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImportUnreadable, err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	excelRows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("%w: 读取工作表失败: %v", ErrImportUnreadable, err)
	}

	if len(excelRows) < 2 {
		return nil, ErrImportNoData
	}

	colIndex := parseAdvisorHeaderIndex(excelRows[0])
	if colIndex["name"] < 0 || colIndex["email"] < 0 || colIndex["specializations"] < 0 {
		return nil, ErrImportBadHeader
	}

	cell := func(row []string, key string) string {
		if idx := colIndex[key]; idx >= 0 && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	var rows []ImportAdvisorRow
	for i := 1; i < len(excelRows); i++ {
		row := excelRows[i]
		item := ImportAdvisorRow{
			Row:             i + 1,
			Name:            cell(row, "name"),
			Email:           cell(row, "email"),
			Specializations: splitSpecializations(cell(row, "specializations")),
			Role:            cell(row, "role"),
			Capacity:        cell(row, "capacity"),
			Approved:        cell(row, "approved"),
		}

		// 跳过全空行
		if item.Name == "" && item.Email == "" && len(item.Specializations) == 0 {
			continue
		}
		rows = append(rows, item)
	}

	if len(rows) == 0 {
		return nil, ErrImportNoData
	}
	if s.cfg.MaxRows > 0 && len(rows) > s.cfg.MaxRows {
		return nil, &ErrImportTooManyRows{Limit: s.cfg.MaxRows}
	}
	return rows, nil
}

// parseAdvisorHeaderIndex 解析表头，返回列名 -> 列索引映射
func parseAdvisorHeaderIndex(header []string) map[string]int {
	idx := map[string]int{
		"name":            -1,
		"email":           -1,
		"specializations": -1,
		"role":            -1,
		"capacity":        -1,
		"approved":        -1,
	}
	for i, h := range header {
		lower := strings.ToLower(strings.TrimSpace(h))
		switch lower {
		case "姓名", "name":
			idx["name"] = i
		case "邮箱", "email":
			idx["email"] = i
		case "研究方向", "specializations":
			idx["specializations"] = i
		case "委员角色", "role":
			idx["role"] = i
		case "名额", "capacity":
			idx["capacity"] = i
		case "已审核", "approved":
			idx["approved"] = i
		}
	}
	return idx
}

// splitSpecializations 研究方向单元格支持 ; , 、 ，分隔
func splitSpecializations(cell string) []string {
	parts := strings.FieldsFunc(cell, func(r rune) bool {
		switch r {
		case ';', '；', ',', '，', '、', '\n':
			return true
		}
		return false
	})
	return cleanSpecializations(parts)
}

// cleanSpecializations 去空白、去重（忽略大小写），保留首次出现的写法
func cleanSpecializations(specs []string) []string {
	seen := make(map[string]struct{}, len(specs))
	result := make([]string, 0, len(specs))
	for _, sp := range specs {
		sp = strings.Join(strings.Fields(sp), " ")
		if sp == "" {
			continue
		}
		key := strings.ToLower(sp)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, sp)
	}
	return result
}

// ────────────────────── ImportAdvisors ──────────────────────

func (s *advisorService) ImportAdvisors(ctx context.Context, rows []ImportAdvisorRow, callerID string) (*dto.ImportAdvisorResponse, error) {
	resp := &dto.ImportAdvisorResponse{Total: len(rows)}
	fail := func(row int, reason string) {
		resp.Failed++
		resp.Errors = append(resp.Errors, dto.ImportAdvisorError{Row: row, Reason: reason})
	}

	// 第一阶段：逐行校验（不写库）
	var valid []*model.Advisor
	seenEmails := make(map[string]struct{})
	for _, row := range rows {
		if row.Name == "" || row.Email == "" || len(row.Specializations) == 0 {
			fail(row.Row, "必填字段为空")
			continue
		}
		if row.Role != "" && !model.IsPanelRole(row.Role) {
			fail(row.Row, fmt.Sprintf("委员角色无效: %s", row.Role))
			continue
		}

		var capacity *int
		if row.Capacity != "" {
			n, err := strconv.Atoi(row.Capacity)
			if err != nil || n < 0 {
				fail(row.Row, fmt.Sprintf("名额无效: %s", row.Capacity))
				continue
			}
			capacity = &n
		}

		approved, ok := parseApproved(row.Approved)
		if !ok {
			fail(row.Row, fmt.Sprintf("审核状态无效: %s", row.Approved))
			continue
		}

		email := strings.ToLower(row.Email)
		if _, dup := seenEmails[email]; dup {
			fail(row.Row, fmt.Sprintf("邮箱在文件中重复: %s", row.Email))
			continue
		}
		if _, err := s.repo.Advisor.GetByEmail(ctx, email); err == nil {
			fail(row.Row, fmt.Sprintf("邮箱已存在: %s", row.Email))
			continue
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		seenEmails[email] = struct{}{}

		advisor := &model.Advisor{
			Name:            row.Name,
			Email:           email,
			Specializations: datatypes.JSONSlice[string](row.Specializations),
			Role:            row.Role,
			Capacity:        capacity,
			IsApproved:      approved,
		}
		if callerID != "" {
			advisor.CreatedBy = &callerID
		}
		valid = append(valid, advisor)
	}

	// 第二阶段：事务内批量创建
	if len(valid) > 0 {
		err := s.repo.WithTx(ctx, func(tx *repository.Repository) error {
			for _, a := range valid {
				if err := tx.Advisor.Create(ctx, a); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			s.logger.Error("批量导入导师失败", zap.Error(err))
			return nil, err
		}
		resp.Success = len(valid)
	}

	s.logger.Info("导师批量导入完成",
		zap.Int("total", resp.Total),
		zap.Int("success", resp.Success),
		zap.Int("failed", resp.Failed),
	)
	return resp, nil
}

// parseApproved 空值视为已审核
func parseApproved(v string) (bool, bool) {
	switch strings.ToLower(v) {
	case "", "是", "y", "yes", "true", "1":
		return true, true
	case "否", "n", "no", "false", "0":
		return false, true
	}
	return false, false
}

// ── 转换 ──

func toAdvisorResponse(advisor *model.Advisor) *dto.AdvisorResponse {
	specs := []string(advisor.Specializations)
	if specs == nil {
		specs = []string{}
	}
	return &dto.AdvisorResponse{
		ID:              advisor.AdvisorID,
		Name:            advisor.Name,
		Email:           advisor.Email,
		Specializations: specs,
		Role:            advisor.Role,
		Capacity:        advisor.Capacity,
		AcceptedCount:   advisor.AcceptedCount,
		IsApproved:      advisor.IsApproved,
	}
}
