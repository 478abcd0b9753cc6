package service

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/serverless-todo/internal/keys"
	"github.com/BuzzLyutic/serverless-todo/internal/model"
	"github.com/BuzzLyutic/serverless-todo/internal/repo"
)

// TaskService runs the task operations for an already authenticated owner.
// It keeps no per-request state; the store is the only shared resource.
type TaskService struct {
	store    repo.Store
	logger   *zap.Logger
	validate *validator.Validate
	now      func() time.Time
	newID    func() string
}

type Option func(*TaskService)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *TaskService) { s.now = now }
}

// WithIDGenerator overrides task id generation.
func WithIDGenerator(newID func() string) Option {
	return func(s *TaskService) { s.newID = newID }
}

func NewTaskService(store repo.Store, logger *zap.Logger, opts ...Option) *TaskService {
	s := &TaskService{
		store:    store,
		logger:   logger,
		validate: newValidator(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (s *TaskService) Create(ctx context.Context, userID string, req model.CreateTask) (model.Task, error) {
	if err := s.validateCreate(req); err != nil {
		return model.Task{}, err
	}

	now := keys.FormatTime(s.now())
	task := model.Task{
		TaskID:      s.newID(),
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Priority:    model.Priority(req.Priority),
		Status:      model.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.Put(ctx, model.ToItem(userID, task)); err != nil {
		return model.Task{}, err
	}

	s.logger.Debug("task created", zap.String("owner", userID), zap.String("task_id", task.TaskID))
	return task, nil
}

func (s *TaskService) List(ctx context.Context, userID string, params model.ListParams) (model.Page, error) {
	q, err := planQuery(userID, params)
	if err != nil {
		return model.Page{}, err
	}

	res, err := s.store.Query(ctx, q)
	if err != nil {
		return model.Page{}, err
	}

	tasks := make([]model.Task, 0, len(res.Items))
	for _, item := range res.Items {
		t, err := model.FromItem(item)
		if err != nil {
			return model.Page{}, err
		}
		tasks = append(tasks, t)
	}
	tasks = filterPage(tasks, params.Filter)

	return model.Page{
		Items:      tasks,
		Count:      len(tasks),
		NextCursor: EncodeCursor(res.LastKey),
	}, nil
}

func (s *TaskService) Update(ctx context.Context, userID, taskID string, cs model.ChangeSet) (model.Task, error) {
	if err := validateChangeSet(s.validate, cs); err != nil {
		return model.Task{}, err
	}

	item, err := s.find(ctx, userID, taskID)
	if err != nil {
		return model.Task{}, err
	}
	existing, err := model.FromItem(item)
	if err != nil {
		return model.Task{}, err
	}

	m, err := buildMutation(s.validate, repo.Key(item), existing, cs, s.now())
	if err != nil {
		return model.Task{}, err
	}

	updated, err := s.store.Update(ctx, m)
	if errors.Is(err, repo.ErrorNotFound) {
		return model.Task{}, ErrNotFound
	}
	if err != nil {
		return model.Task{}, err
	}

	s.logger.Debug("task updated", zap.String("owner", userID), zap.String("task_id", taskID), zap.Int("attrs", len(m.Set)))
	return model.FromItem(updated)
}

func (s *TaskService) Delete(ctx context.Context, userID, taskID string) error {
	item, err := s.find(ctx, userID, taskID)
	if err != nil {
		return err
	}

	err = s.store.Delete(ctx, repo.Key{keys.AttrPK: item[keys.AttrPK], keys.AttrSK: item[keys.AttrSK]})
	if errors.Is(err, repo.ErrorNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	s.logger.Debug("task deleted", zap.String("owner", userID), zap.String("task_id", taskID))
	return nil
}

// find walks the owner's whole partition looking for taskID. The sort key
// does not contain the task id alone, so there is no direct lookup.
func (s *TaskService) find(ctx context.Context, userID, taskID string) (repo.Item, error) {
	if taskID == "" {
		return nil, &FieldError{Kind: ErrValidation, Field: model.AttrTaskID, Reason: "is required"}
	}

	q := repo.Query{
		Index:        repo.PrimaryIndex,
		PartitionKey: keys.OwnerKey(userID),
		Forward:      true,
	}
	for {
		res, err := s.store.Query(ctx, q)
		if err != nil {
			return nil, err
		}
		for _, item := range res.Items {
			if item[model.AttrTaskID] == taskID {
				return item, nil
			}
		}
		if res.LastKey == nil {
			return nil, ErrNotFound
		}
		q.StartKey = res.LastKey
	}
}

func (s *TaskService) validateCreate(req model.CreateTask) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &FieldError{Kind: ErrValidation, Field: "body", Reason: err.Error()}
	}

	fe := verrs[0]
	reason := "is invalid"
	switch fe.Tag() {
	case "required", "notblank":
		reason = "is required"
	case "oneof":
		reason = "must be one of HIGH, MEDIUM, LOW"
	case "datetime":
		reason = "must be a date in YYYY-MM-DD format"
	}
	return &FieldError{Kind: ErrValidation, Field: fe.Field(), Reason: reason}
}
