package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kpcnc-co/seminar/internal/model"
	"github.com/kpcnc-co/seminar/internal/repository"
	apperrors "github.com/kpcnc-co/seminar/pkg/errors"
)

// ── 세미나业务错误 ──

var (
	ErrPlanNotFound   = errors.New("세미나 계획을 찾을 수 없습니다")
	ErrResultNotFound = errors.New("세미나 실시결과를 찾을 수 없습니다")
	ErrSketchNotFound = errors.New("스케치를 찾을 수 없습니다")
)

// PlanEntry / ResultEntry 带存储标识的记录
type (
	PlanEntry   = repository.Entry[model.SeminarPlan]
	ResultEntry = repository.Entry[model.SeminarResult]
)

// Action 按键写入的结果类型
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
)

// UpsertOutcome 按键写入结果
type UpsertOutcome struct {
	Action Action `json:"action"`
	ID     string `json:"id"`
}

// DeleteSummary 批量删除结果
type DeleteSummary struct {
	Plans   int `json:"plans"`
	Results int `json:"results"`
}

// EditSession 表单编辑会话：记录打开表单时的文档 ID 与复合键
type EditSession struct {
	DocumentID string `json:"documentId"`
	LoadedKey  string `json:"loadedKey"`
}

// ResultContent 表单中的实施结果部分
type ResultContent struct {
	MainContent string         `json:"mainContent"`
	FuturePlan  string         `json:"futurePlan"`
	Sketches    []model.Sketch `json:"sketches"`
}

// FormSubmission 一次表单提交：计划 + 可选的实施结果
type FormSubmission struct {
	Plan   model.SeminarPlan
	Result *ResultContent
}

// FormOutcome 表单保存结果
type FormOutcome struct {
	Plan       UpsertOutcome  `json:"plan"`
	Result     *UpsertOutcome `json:"result,omitempty"`
	KeyChanged bool           `json:"keyChanged"` // 键已改变：在新键下写入，旧记录保持不变
	Session    EditSession    `json:"session"`
}

// SketchPatch 草图部分更新，nil 字段不修改
type SketchPatch struct {
	Title     *string
	ImageData *string
	FileName  *string
}

// AttendanceOutcome 出席切换结果
type AttendanceOutcome struct {
	Attendee model.Attendee `json:"attendee"`
	Saved    bool           `json:"saved"`
	ID       string         `json:"id,omitempty"`
}

// SeminarService 세미나 计划/实施结果业务接口
//
// 设计说明：
//   - 记录以 (회차, 일시) 复合键标识，写入一律 "先按键查找，再覆盖或新增"
//   - 同一键的查找 + 写入由 KeyLocker 串行化，仍是最后写入者胜出
//   - 存储错误包装为 StorageError 原样上抛，不重试
type SeminarService interface {
	FindByKey(ctx context.Context, session, datetime string) (*PlanEntry, error)
	FindResultByKey(ctx context.Context, session, datetime string) (*ResultEntry, error)
	GetPlan(ctx context.Context, id string) (*PlanEntry, error)
	ListPlans(ctx context.Context) ([]PlanEntry, error)

	UpsertPlan(ctx context.Context, plan *model.SeminarPlan) (*UpsertOutcome, error)
	UpsertResult(ctx context.Context, result *model.SeminarResult) (*UpsertOutcome, error)
	// QuietUpsert 自动保存：从不返回错误，失败仅记录日志并返回 nil
	QuietUpsert(ctx context.Context, plan *model.SeminarPlan) *UpsertOutcome

	DeletePlan(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) (*DeleteSummary, error)

	SaveForm(ctx context.Context, session *EditSession, form *FormSubmission) (*FormOutcome, error)

	AddSketch(ctx context.Context, session, datetime string, sketch model.Sketch) (*model.Sketch, error)
	UpdateSketch(ctx context.Context, session, datetime, id string, patch SketchPatch) (*model.Sketch, error)
	RemoveSketch(ctx context.Context, session, datetime, id string) error
	ReorderSketches(ctx context.Context, session, datetime string, ids []string) ([]model.Sketch, error)

	ToggleAttendance(ctx context.Context, session, datetime string, index int, value string) (*AttendanceOutcome, error)
}

type seminarService struct {
	repo   *repository.Repository
	locker *KeyLocker
	logger *zap.Logger
}

// NewSeminarService 创建 SeminarService 实例。locker 为 nil 时使用仅进程内的键锁。
func NewSeminarService(repo *repository.Repository, locker *KeyLocker, logger *zap.Logger) SeminarService {
	if locker == nil {
		locker = NewKeyLocker(nil, 0, logger)
	}
	return &seminarService{repo: repo, locker: locker, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// 按键查找
// ═══════════════════════════════════════════════════════════

// findByKey 支持键索引的后端直接查询，否则线性扫描。
// 两条路径语义相同：同键下最早插入者胜出，未填全两个字段的记录不参与。
func findByKey[T any](ctx context.Context, coll repository.Collection[T], key string, keyOf func(*T) (string, string)) (*repository.Entry[T], error) {
	if idx, ok := coll.(repository.KeyIndex[T]); ok {
		e, err := idx.FindByKey(ctx, key)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, apperrors.WrapStorage("find", err)
		}
		return e, nil
	}

	entries, err := coll.List(ctx)
	if err != nil {
		return nil, apperrors.WrapStorage("list", err)
	}
	for i := range entries {
		s, d := keyOf(&entries[i].Record)
		if model.Keyed(s, d) && model.CompositeKey(s, d) == key {
			return &entries[i], nil
		}
	}
	return nil, nil
}

func planKeyOf(p *model.SeminarPlan) (string, string)     { return p.Session, p.Datetime }
func resultKeyOf(r *model.SeminarResult) (string, string) { return r.Session, r.Datetime }

func (s *seminarService) FindByKey(ctx context.Context, session, datetime string) (*PlanEntry, error) {
	if !model.Keyed(session, datetime) {
		return nil, nil
	}
	return findByKey(ctx, s.repo.Plan, model.CompositeKey(session, datetime), planKeyOf)
}

func (s *seminarService) FindResultByKey(ctx context.Context, session, datetime string) (*ResultEntry, error) {
	if !model.Keyed(session, datetime) {
		return nil, nil
	}
	return findByKey(ctx, s.repo.Result, model.CompositeKey(session, datetime), resultKeyOf)
}

func (s *seminarService) GetPlan(ctx context.Context, id string) (*PlanEntry, error) {
	e, err := s.repo.Plan.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, apperrors.WrapStorage("get", err)
	}
	return e, nil
}

// ListPlans 按解析后的일시倒序；无法解析的排在最后并保持插入顺序
func (s *seminarService) ListPlans(ctx context.Context) ([]PlanEntry, error) {
	entries, err := s.repo.Plan.List(ctx)
	if err != nil {
		return nil, apperrors.WrapStorage("list", err)
	}

	type sortKey struct {
		t  time.Time
		ok bool
	}
	keys := make(map[string]sortKey, len(entries))
	for _, e := range entries {
		t, ok := model.ParseDatetime(e.Record.Datetime, nil)
		keys[e.ID] = sortKey{t: t, ok: ok}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := keys[entries[i].ID], keys[entries[j].ID]
		if a.ok != b.ok {
			return a.ok
		}
		return a.ok && a.t.After(b.t)
	})
	return entries, nil
}

// ═══════════════════════════════════════════════════════════
// 按键写入
// ═══════════════════════════════════════════════════════════

func (s *seminarService) UpsertPlan(ctx context.Context, plan *model.SeminarPlan) (*UpsertOutcome, error) {
	if err := model.ValidateKey(plan.Session, plan.Datetime); err != nil {
		return nil, err
	}
	plan.Normalize()
	assignSketchIDs(plan.Sketches)

	key := model.CompositeKey(plan.Session, plan.Datetime)
	unlock, err := s.locker.Lock(ctx, "plan:"+key)
	if err != nil {
		return nil, err
	}
	defer unlock()

	return upsert(ctx, s.repo.Plan, key, plan, planKeyOf)
}

func (s *seminarService) UpsertResult(ctx context.Context, result *model.SeminarResult) (*UpsertOutcome, error) {
	if err := model.ValidateKey(result.Session, result.Datetime); err != nil {
		return nil, err
	}
	result.Normalize()
	assignSketchIDs(result.Sketches)

	key := model.CompositeKey(result.Session, result.Datetime)
	unlock, err := s.locker.Lock(ctx, "result:"+key)
	if err != nil {
		return nil, err
	}
	defer unlock()

	return upsert(ctx, s.repo.Result, key, result, resultKeyOf)
}

// upsert 调用方须持有 key 的锁。已存在则整体覆盖，否则新增。
func upsert[T any](ctx context.Context, coll repository.Collection[T], key string, rec *T, keyOf func(*T) (string, string)) (*UpsertOutcome, error) {
	existing, err := findByKey(ctx, coll, key, keyOf)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if err := coll.Replace(ctx, existing.ID, rec); err != nil {
			return nil, apperrors.WrapStorage("replace", err)
		}
		return &UpsertOutcome{Action: ActionUpdated, ID: existing.ID}, nil
	}

	id, err := coll.Insert(ctx, rec)
	if err != nil {
		return nil, apperrors.WrapStorage("insert", err)
	}
	return &UpsertOutcome{Action: ActionCreated, ID: id}, nil
}

func (s *seminarService) QuietUpsert(ctx context.Context, plan *model.SeminarPlan) (out *UpsertOutcome) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("自动保存异常", zap.Any("panic", r))
			out = nil
		}
	}()
	if plan == nil {
		return nil
	}

	out, err := s.UpsertPlan(ctx, plan)
	if err != nil {
		s.logger.Warn("自动保存失败",
			zap.String("session", plan.Session),
			zap.String("datetime", plan.Datetime),
			zap.Error(err),
		)
		return nil
	}
	return out
}

// ═══════════════════════════════════════════════════════════
// 删除
// ═══════════════════════════════════════════════════════════

// DeletePlan 删除计划，并级联删除同键的实施结果
func (s *seminarService) DeletePlan(ctx context.Context, id string) error {
	entry, err := s.GetPlan(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Plan.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPlanNotFound
		}
		return apperrors.WrapStorage("delete", err)
	}

	session, datetime := entry.Record.Session, entry.Record.Datetime
	if !model.Keyed(session, datetime) {
		return nil
	}
	key := model.CompositeKey(session, datetime)
	unlock, err := s.locker.Lock(ctx, "result:"+key)
	if err != nil {
		return err
	}
	defer unlock()

	result, err := findByKey(ctx, s.repo.Result, key, resultKeyOf)
	if err != nil || result == nil {
		return err
	}
	if err := s.repo.Result.Delete(ctx, result.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return apperrors.WrapStorage("delete", err)
	}
	s.logger.Info("已级联删除实施结果", zap.String("key", key), zap.String("result_id", result.ID))
	return nil
}

// DeleteAll 删除全部计划与实施结果。已被并发删除的记录不计入数量。
func (s *seminarService) DeleteAll(ctx context.Context) (*DeleteSummary, error) {
	sum := &DeleteSummary{}

	plans, err := s.repo.Plan.List(ctx)
	if err != nil {
		return nil, apperrors.WrapStorage("list", err)
	}
	for _, p := range plans {
		err := s.repo.Plan.Delete(ctx, p.ID)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return sum, apperrors.WrapStorage("delete", err)
		}
		sum.Plans++
	}

	results, err := s.repo.Result.List(ctx)
	if err != nil {
		return sum, apperrors.WrapStorage("list", err)
	}
	for _, r := range results {
		err := s.repo.Result.Delete(ctx, r.ID)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return sum, apperrors.WrapStorage("delete", err)
		}
		sum.Results++
	}

	s.logger.Info("已删除全部记录", zap.Int("plans", sum.Plans), zap.Int("results", sum.Results))
	return sum, nil
}

// ═══════════════════════════════════════════════════════════
// SaveForm 表单保存
// ═══════════════════════════════════════════════════════════
//
// 按提交时的（当前）键保存计划，再保存实施结果。
// 当前键与打开时的键不同：在新键下新增/覆盖，旧记录不动，KeyChanged=true。

func (s *seminarService) SaveForm(ctx context.Context, session *EditSession, form *FormSubmission) (*FormOutcome, error) {
	if session == nil {
		session = &EditSession{}
	}
	plan := form.Plan
	key := model.CompositeKey(plan.Session, plan.Datetime)

	planOut, err := s.UpsertPlan(ctx, &plan)
	if err != nil {
		return nil, err
	}

	out := &FormOutcome{
		Plan:       *planOut,
		KeyChanged: session.LoadedKey != "" && session.LoadedKey != key,
	}
	if out.KeyChanged {
		s.logger.Info("表单键已改变，已在新键下保存",
			zap.String("loaded_key", session.LoadedKey),
			zap.String("key", key),
			zap.String("id", planOut.ID),
		)
	}

	if form.Result != nil {
		res := &model.SeminarResult{
			Session:     plan.Session,
			Datetime:    plan.Datetime,
			MainContent: form.Result.MainContent,
			FuturePlan:  form.Result.FuturePlan,
			Sketches:    form.Result.Sketches,
		}
		resOut, err := s.UpsertResult(ctx, res)
		if err != nil {
			return nil, err
		}
		out.Result = resOut
	}

	session.DocumentID = planOut.ID
	session.LoadedKey = key
	out.Session = *session
	return out, nil
}

// ═══════════════════════════════════════════════════════════
// 草图
// ═══════════════════════════════════════════════════════════

// mutateSketches 在结果键锁内读取-修改-写回草图列表
func (s *seminarService) mutateSketches(ctx context.Context, session, datetime string, createIfMissing bool, fn func(r *model.SeminarResult) error) (*model.SeminarResult, error) {
	if err := model.ValidateKey(session, datetime); err != nil {
		return nil, err
	}
	key := model.CompositeKey(session, datetime)
	unlock, err := s.locker.Lock(ctx, "result:"+key)
	if err != nil {
		return nil, err
	}
	defer unlock()

	entry, err := findByKey(ctx, s.repo.Result, key, resultKeyOf)
	if err != nil {
		return nil, err
	}
	var res model.SeminarResult
	switch {
	case entry != nil:
		res = entry.Record
	case createIfMissing:
		res = model.SeminarResult{Session: session, Datetime: datetime}
	default:
		return nil, ErrResultNotFound
	}
	res.Normalize()
	assignSketchIDs(res.Sketches)

	if err := fn(&res); err != nil {
		return nil, err
	}

	if entry != nil {
		err = s.repo.Result.Replace(ctx, entry.ID, &res)
	} else {
		_, err = s.repo.Result.Insert(ctx, &res)
	}
	if err != nil {
		return nil, apperrors.WrapStorage("write", err)
	}
	return &res, nil
}

func (s *seminarService) AddSketch(ctx context.Context, session, datetime string, sketch model.Sketch) (*model.Sketch, error) {
	sketch.ID = uuid.NewString()
	if _, err := s.mutateSketches(ctx, session, datetime, true, func(r *model.SeminarResult) error {
		r.Sketches = append(r.Sketches, sketch)
		return nil
	}); err != nil {
		return nil, err
	}
	return &sketch, nil
}

func (s *seminarService) UpdateSketch(ctx context.Context, session, datetime, id string, patch SketchPatch) (*model.Sketch, error) {
	var updated model.Sketch
	if _, err := s.mutateSketches(ctx, session, datetime, false, func(r *model.SeminarResult) error {
		i := sketchIndex(r.Sketches, id)
		if i < 0 {
			return ErrSketchNotFound
		}
		sk := &r.Sketches[i]
		if patch.Title != nil {
			sk.Title = *patch.Title
		}
		if patch.ImageData != nil {
			sk.ImageData = *patch.ImageData
		}
		if patch.FileName != nil {
			sk.FileName = *patch.FileName
		}
		updated = *sk
		return nil
	}); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *seminarService) RemoveSketch(ctx context.Context, session, datetime, id string) error {
	_, err := s.mutateSketches(ctx, session, datetime, false, func(r *model.SeminarResult) error {
		i := sketchIndex(r.Sketches, id)
		if i < 0 {
			return ErrSketchNotFound
		}
		r.Sketches = append(r.Sketches[:i], r.Sketches[i+1:]...)
		return nil
	})
	return err
}

// ReorderSketches ids 必须恰好是现有草图 ID 的一个排列
func (s *seminarService) ReorderSketches(ctx context.Context, session, datetime string, ids []string) ([]model.Sketch, error) {
	res, err := s.mutateSketches(ctx, session, datetime, false, func(r *model.SeminarResult) error {
		if len(ids) != len(r.Sketches) {
			return apperrors.NewValidation("ids", fmt.Sprintf("스케치 %d개의 순서를 모두 지정해야 합니다", len(r.Sketches)))
		}
		byID := make(map[string]model.Sketch, len(r.Sketches))
		for _, sk := range r.Sketches {
			byID[sk.ID] = sk
		}
		ordered := make([]model.Sketch, 0, len(ids))
		for _, id := range ids {
			sk, ok := byID[id]
			if !ok {
				return apperrors.NewValidation("ids", fmt.Sprintf("알 수 없거나 중복된 스케치 ID: %s", id))
			}
			delete(byID, id)
			ordered = append(ordered, sk)
		}
		r.Sketches = ordered
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res.Sketches, nil
}

func sketchIndex(list []model.Sketch, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

// assignSketchIDs 旧数据/导入数据中没有 ID 的草图补发 ID
func assignSketchIDs(list []model.Sketch) {
	for i := range list {
		if list[i].ID == "" {
			list[i].ID = uuid.NewString()
		}
	}
}

// ═══════════════════════════════════════════════════════════
// ToggleAttendance 出席切换（切换即自动保存）
// ═══════════════════════════════════════════════════════════

// ToggleAttendance 在计划键锁内读取-修改-写回；写入失败只记日志，返回 Saved=false
func (s *seminarService) ToggleAttendance(ctx context.Context, session, datetime string, index int, value string) (*AttendanceOutcome, error) {
	if value != model.AttendanceYes && value != model.AttendanceNo {
		return nil, apperrors.NewValidation("attendance", "출석 값은 Y 또는 N 이어야 합니다")
	}
	if !model.Keyed(session, datetime) {
		return nil, ErrPlanNotFound
	}

	key := model.CompositeKey(session, datetime)
	unlock, err := s.locker.Lock(ctx, "plan:"+key)
	if err != nil {
		return nil, err
	}
	defer unlock()

	entry, err := findByKey(ctx, s.repo.Plan, key, planKeyOf)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ErrPlanNotFound
	}
	plan := entry.Record
	if index < 0 || index >= len(plan.AttendeeList) {
		return nil, apperrors.NewValidation("index", fmt.Sprintf("참석자 번호가 범위를 벗어났습니다 (0-%d)", len(plan.AttendeeList)-1))
	}
	plan.AttendeeList = append([]model.Attendee(nil), plan.AttendeeList...)
	plan.AttendeeList[index].Attendance = value

	out := &AttendanceOutcome{Attendee: plan.AttendeeList[index]}
	if err := s.repo.Plan.Replace(ctx, entry.ID, &plan); err != nil {
		s.logger.Warn("出席自动保存失败",
			zap.String("key", key),
			zap.Int("index", index),
			zap.Error(err),
		)
		return out, nil
	}
	out.Saved = true
	out.ID = entry.ID
	return out, nil
}
