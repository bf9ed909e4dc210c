// Package seed 从 YAML 文件批量写入同义词、导师与学生基础数据
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"thesis-hub/backend/internal/dto"
	"thesis-hub/backend/internal/service"
)

// File 种子文件结构，三个段落均可省略
type File struct {
	Synonyms []SynonymEntry `yaml:"synonyms"`
	Advisors []AdvisorEntry `yaml:"advisors"`
	Students []StudentEntry `yaml:"students"`
}

// SynonymEntry 一组互为同义的词条
type SynonymEntry struct {
	Terms    []string `yaml:"terms"`
	Synonyms []string `yaml:"synonyms"`
}

// AdvisorEntry 导师种子，字段含义与 Excel 导入一致
type AdvisorEntry struct {
	Name            string   `yaml:"name"`
	Email           string   `yaml:"email"`
	Specializations []string `yaml:"specializations"`
	Role            string   `yaml:"role"`
	Capacity        *int     `yaml:"capacity"`
	Approved        *bool    `yaml:"approved"`
}

// StudentEntry 学生种子
type StudentEntry struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

// Report 写入结果汇总
type Report struct {
	Synonyms        int                        `json:"synonyms"`
	Advisors        *dto.ImportAdvisorResponse `json:"advisors,omitempty"`
	Students        int                        `json:"students"`
	StudentsSkipped int                        `json:"students_skipped"`
}

// Load 解析种子 YAML，未知字段视为错误
func Load(r io.Reader) (*File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("解析种子文件失败: %w", err)
	}
	return &f, nil
}

// LoadFile 读取并解析种子文件
func LoadFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开种子文件失败: %w", err)
	}
	defer fh.Close()
	return Load(fh)
}

// Seeder 通过业务服务写入种子数据，复用与接口一致的校验
type Seeder struct {
	svc      *service.Service
	callerID string
	logger   *zap.Logger
}

// NewSeeder 创建 Seeder，callerID 记录为 created_by，可为空
func NewSeeder(svc *service.Service, callerID string, logger *zap.Logger) *Seeder {
	return &Seeder{svc: svc, callerID: callerID, logger: logger}
}

// Apply 依次写入同义词、导师、学生
func (s *Seeder) Apply(ctx context.Context, f *File) (*Report, error) {
	report := &Report{}

	n, err := s.ApplySynonyms(ctx, f.Synonyms)
	report.Synonyms = n
	if err != nil {
		return report, err
	}

	if len(f.Advisors) > 0 {
		resp, err := s.ApplyAdvisors(ctx, f.Advisors)
		if err != nil {
			return report, err
		}
		report.Advisors = resp
	}

	created, skipped, err := s.ApplyStudents(ctx, f.Students)
	report.Students, report.StudentsSkipped = created, skipped
	if err != nil {
		return report, err
	}

	s.logger.Info("种子数据写入完成",
		zap.Int("synonyms", report.Synonyms),
		zap.Int("students", report.Students),
		zap.Int("students_skipped", report.StudentsSkipped),
	)
	return report, nil
}

// ApplySynonyms 逐条创建同义词条目，遇错即停并返回条目序号
func (s *Seeder) ApplySynonyms(ctx context.Context, entries []SynonymEntry) (int, error) {
	created := 0
	for i, e := range entries {
		req := &dto.CreateSynonymRequest{Terms: e.Terms, Synonyms: e.Synonyms}
		if _, err := s.svc.Synonym.Create(ctx, req, s.callerID); err != nil {
			return created, fmt.Errorf("第 %d 条同义词: %w", i+1, err)
		}
		created++
	}
	return created, nil
}

// ApplyAdvisors 走批量导入流程，逐条返回失败原因；序号从 1 开始
func (s *Seeder) ApplyAdvisors(ctx context.Context, entries []AdvisorEntry) (*dto.ImportAdvisorResponse, error) {
	rows := make([]service.ImportAdvisorRow, 0, len(entries))
	for i, e := range entries {
		row := service.ImportAdvisorRow{
			Row:             i + 1,
			Name:            e.Name,
			Email:           e.Email,
			Specializations: e.Specializations,
			Role:            e.Role,
		}
		if e.Capacity != nil {
			row.Capacity = strconv.Itoa(*e.Capacity)
		}
		if e.Approved != nil {
			row.Approved = strconv.FormatBool(*e.Approved)
		}
		rows = append(rows, row)
	}
	return s.svc.Advisor.ImportAdvisors(ctx, rows, s.callerID)
}

// ApplyStudents 创建学生，邮箱已存在的记为跳过，便于重复执行
func (s *Seeder) ApplyStudents(ctx context.Context, entries []StudentEntry) (created, skipped int, err error) {
	for i, e := range entries {
		_, err := s.svc.Student.Create(ctx, &dto.CreateStudentRequest{Name: e.Name, Email: e.Email})
		switch {
		case err == nil:
			created++
		case errors.Is(err, service.ErrStudentEmailExists):
			skipped++
		default:
			return created, skipped, fmt.Errorf("第 %d 名学生: %w", i+1, err)
		}
	}
	return created, skipped, nil
}
