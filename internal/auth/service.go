package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Joellzt/movie-cards/internal/model"
	"github.com/Joellzt/movie-cards/internal/repository"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// MinPasswordLength 密码最短长度
const MinPasswordLength = 6

// 认证错误
var (
	ErrEmailTaken         = errors.New("该邮箱已被注册")
	ErrInvalidCredentials = errors.New("邮箱或密码错误")
	ErrWeakPassword       = fmt.Errorf("密码至少需要 %d 个字符", MinPasswordLength)
	ErrInvalidEmail       = errors.New("邮箱格式不正确")
)

// EventType 会话变化类型
type EventType int

const (
	SignedIn EventType = iota + 1
	SignedOut
)

func (t EventType) String() string {
	switch t {
	case SignedIn:
		return "signed_in"
	case SignedOut:
		return "signed_out"
	default:
		return "unknown"
	}
}

// Event 会话变化通知
type Event struct {
	Type    EventType
	Session *model.Session
	At      time.Time
}

const (
	eventQueueSize      = 64
	subscriberQueueSize = 16
)

// Service 注册、登录、登出与会话变化通知
type Service struct {
	users  repository.UserStore
	secret string
	expiry time.Duration
	log    *zap.Logger

	validate *validator.Validate

	mu      sync.Mutex
	subs    map[int]chan Event
	nextSub int
	started bool
	closed  bool
	events  chan Event
	done    chan struct{}
	wg      sync.WaitGroup
}

func NewService(users repository.UserStore, secret string, expiry time.Duration, log *zap.Logger) *Service {
	return &Service{
		users:    users,
		secret:   secret,
		expiry:   expiry,
		log:      log.With(zap.String("service", "auth")),
		validate: validator.New(),
		subs:     make(map[int]chan Event),
		events:   make(chan Event, eventQueueSize),
		done:     make(chan struct{}),
	}
}

// Start 启动事件分发
func (s *Service) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.closed {
		return
	}
	s.started = true
	s.wg.Add(1)
	go s.dispatch()
}

// Close 停止分发并关闭所有订阅通道，之后的事件直接丢弃
func (s *Service) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.done)
	s.mu.Unlock()

	s.wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
	return nil
}

// Subscribe 订阅会话变化，返回的函数用于取消订阅
func (s *Service) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Event, subscriberQueueSize)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[id]; ok {
				close(c)
				delete(s.subs, id)
			}
		})
	}
}

func (s *Service) publish(typ EventType, sess *model.Session) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return
	}

	ev := Event{Type: typ, Session: sess, At: time.Now()}
	select {
	case s.events <- ev:
	default:
		s.log.Warn("事件队列已满，丢弃事件", zap.Stringer("type", typ))
	}
}

func (s *Service) dispatch() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case ev := <-s.events:
			s.fanOut(ev)
		}
	}
}

func (s *Service) fanOut(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.subs {
		select {
		case ch <- ev:
		default:
			s.log.Warn("订阅者处理过慢，丢弃事件", zap.Int("subscriber", id), zap.Stringer("type", ev.Type))
		}
	}
}

// Current 当前请求的用户
func (s *Service) Current(ctx context.Context) (*model.Session, bool) {
	return FromContext(ctx)
}

// SignUp 注册并登录，displayName 为空时取邮箱前缀
func (s *Service) SignUp(ctx context.Context, email, password, displayName string) (*model.Session, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, "", ErrInvalidEmail
	}
	if len(password) < MinPasswordLength {
		return nil, "", ErrWeakPassword
	}

	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName, _, _ = strings.Cut(email, "@")
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if existing != nil {
		return nil, "", ErrEmailTaken
	}

	user, err := s.users.Create(ctx, email, displayName, password)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, "", ErrEmailTaken
	}
	if err != nil {
		s.log.Error("创建用户失败", zap.String("email", email), zap.Error(err))
		return nil, "", err
	}

	s.log.Info("新用户注册", zap.String("user_id", user.ID))
	return s.signIn(user)
}

// SignIn 邮箱密码登录
func (s *Service) SignIn(ctx context.Context, email, password string) (*model.Session, string, error) {
	user, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, "", err
	}
	if user == nil || !s.users.CheckPassword(user, password) {
		return nil, "", ErrInvalidCredentials
	}
	return s.signIn(user)
}

func (s *Service) signIn(user *model.User) (*model.Session, string, error) {
	sess := &model.Session{
		UserID:      user.ID,
		DisplayName: user.Username,
		Email:       user.Email,
	}
	token, err := GenerateToken(sess, s.secret, s.expiry)
	if err != nil {
		return nil, "", err
	}
	s.publish(SignedIn, sess)
	return sess, token, nil
}

// SignOut 登出（Token 无状态，只发通知）
func (s *Service) SignOut(_ context.Context, sess *model.Session) {
	if sess == nil {
		return
	}
	s.publish(SignedOut, sess)
}

// Authenticate 校验 Token 并返回对应用户
func (s *Service) Authenticate(token string) (*model.Session, *Claims, error) {
	claims, err := ParseToken(token, s.secret)
	if err != nil {
		return nil, nil, err
	}
	return claims.Session(), claims, nil
}

// Refresh 为已登录用户签发新 Token
func (s *Service) Refresh(sess *model.Session) (string, error) {
	return GenerateToken(sess, s.secret, s.expiry)
}

// Expiry Token 有效期
func (s *Service) Expiry() time.Duration {
	return s.expiry
}
