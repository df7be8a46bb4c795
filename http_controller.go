package users

import (
	"fmt"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// UserController exposes the account lifecycle and authentication flow as a
// JSON API. Transport concerns stop here: handlers validate the payload,
// consult the authorization policy, and delegate to the manager.
type UserController struct {
	Debug   bool
	Logger  Logger
	Manager *AccountManager
	Auth    Authenticator
}

type UserControllerOption func(*UserController) *UserController

func NewUserController(opts ...UserControllerOption) *UserController {
	c := &UserController{
		Logger: defLogger{},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Manager == nil {
		panic("Missing AccountManager in user controller...")
	}

	if c.Auth == nil {
		panic("Missing Authenticator in user controller...")
	}

	return c
}

func WithManager(m *AccountManager) UserControllerOption {
	return func(c *UserController) *UserController {
		c.Manager = m
		return c
	}
}

func WithAuthenticator(a Authenticator) UserControllerOption {
	return func(c *UserController) *UserController {
		c.Auth = a
		return c
	}
}

func WithControllerLogger(l Logger) UserControllerOption {
	return func(c *UserController) *UserController {
		c.Logger = l
		return c
	}
}

// RegisterRoutes mounts the controller under /user. The token middleware
// guards the lifecycle routes; create, authenticate, token, and validate are
// reachable without one.
func (ctrl *UserController) RegisterRoutes(app *fiber.App, validator TokenValidator) {
	protected := TokenProtected(validator, ctrl.respondError)

	user := app.Group("/user")

	user.Post("/", ctrl.Create)
	user.Post("/authenticate", ctrl.Authenticate)
	user.Post("/token", ctrl.Token)
	user.Post("/validate", ctrl.Validate)

	user.Get("/", protected, ctrl.Find)
	user.Get("/:id", protected, ctrl.FindOne)
	user.Patch("/", protected, ctrl.Update)
	user.Delete("/", protected, ctrl.Delete)
}

// CreateUserRequest is the registration payload.
type CreateUserRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	Admin          bool   `json:"admin"`
	EmailConfirmed bool   `json:"email_confirmed"`
}

// Validate will run validation rules
func (r CreateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 100)),
	)
}

func (ctrl *UserController) Create(c *fiber.Ctx) error {
	payload := new(CreateUserRequest)

	if err := c.BodyParser(payload); err != nil {
		return ctrl.respondError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body"))
	}

	if err := payload.Validate(); err != nil {
		return ctrl.respondValidation(c, err)
	}

	if ctrl.Debug {
		fmt.Println(print.MaybePrettyJSON(payload))
	}

	user, err := ctrl.Manager.CreateUser(c.UserContext(), CreateUserMessage{
		Name:           payload.Name,
		Email:          payload.Email,
		Password:       payload.Password,
		Admin:          payload.Admin,
		EmailConfirmed: payload.EmailConfirmed,
	})
	if err != nil {
		return ctrl.respondError(c, err)
	}

	return c.JSON(user)
}

func (ctrl *UserController) Find(c *fiber.Ctx) error {
	caller, ok := CallerFromCtx(c)
	if !ok {
		return ctrl.respondError(c, ErrInvalidToken)
	}

	// Non-admins see their own record only, whatever the filters say.
	if !CanList(caller) {
		own, err := ctrl.Manager.FindUser(c.UserContext(), UserLookup{ID: caller.ID})
		if err != nil {
			return ctrl.respondError(c, err)
		}
		if own == nil {
			return c.JSON([]*User{})
		}
		return c.JSON([]*User{own})
	}

	filter, err := filterFromQuery(c)
	if err != nil {
		return ctrl.respondError(c, err)
	}

	records, err := ctrl.Manager.FindUsers(c.UserContext(), filter)
	if err != nil {
		return ctrl.respondError(c, err)
	}

	return c.JSON(records)
}

func (ctrl *UserController) FindOne(c *fiber.Ctx) error {
	caller, ok := CallerFromCtx(c)
	if !ok {
		return ctrl.respondError(c, ErrInvalidToken)
	}

	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return ctrl.respondError(c, goerrors.New("id must be numeric", goerrors.CategoryBadInput))
	}

	if err := Authorize(caller, OpReadOne, id); err != nil {
		return ctrl.respondError(c, err)
	}

	user, err := ctrl.Manager.FindUser(c.UserContext(), UserLookup{ID: id})
	if err != nil {
		return ctrl.respondError(c, err)
	}

	return c.JSON(user)
}

// UpdateUserRequest mutates name and/or password of an account.
type UpdateUserRequest struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r UpdateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ID, validation.Required),
		validation.Field(&r.Password, validation.Length(6, 100)),
	)
}

func (ctrl *UserController) Update(c *fiber.Ctx) error {
	caller, ok := CallerFromCtx(c)
	if !ok {
		return ctrl.respondError(c, ErrInvalidToken)
	}

	payload := new(UpdateUserRequest)
	if err := c.BodyParser(payload); err != nil {
		return ctrl.respondError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body"))
	}

	if err := payload.Validate(); err != nil {
		return ctrl.respondValidation(c, err)
	}

	if err := Authorize(caller, OpUpdate, payload.ID); err != nil {
		return ctrl.respondError(c, err)
	}

	msg := UpdateUserMessage{ID: payload.ID}
	if payload.Name != "" {
		msg.Name = &payload.Name
	}
	if payload.Password != "" {
		msg.Password = &payload.Password
	}

	result, err := ctrl.Manager.UpdateUser(c.UserContext(), msg)
	if err != nil {
		return ctrl.respondError(c, err)
	}

	return c.JSON(result)
}

// DeleteUserRequest identifies the account to soft-delete.
type DeleteUserRequest struct {
	ID int64 `json:"id"`
}

// Validate will run validation rules
func (r DeleteUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ID, validation.Required),
	)
}

func (ctrl *UserController) Delete(c *fiber.Ctx) error {
	caller, ok := CallerFromCtx(c)
	if !ok {
		return ctrl.respondError(c, ErrInvalidToken)
	}

	payload := new(DeleteUserRequest)
	if err := c.BodyParser(payload); err != nil {
		return ctrl.respondError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body"))
	}

	if err := payload.Validate(); err != nil {
		return ctrl.respondValidation(c, err)
	}

	if err := Authorize(caller, OpDelete, payload.ID); err != nil {
		return ctrl.respondError(c, err)
	}

	result, err := ctrl.Manager.DeleteUser(c.UserContext(), DeleteUserMessage{ID: payload.ID})
	if err != nil {
		return ctrl.respondError(c, err)
	}

	return c.JSON(result)
}

// AuthenticateRequest is the credentials payload for authenticate and token.
type AuthenticateRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r AuthenticateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (ctrl *UserController) Authenticate(c *fiber.Ctx) error {
	payload := new(AuthenticateRequest)
	if err := c.BodyParser(payload); err != nil {
		return ctrl.respondError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body"))
	}

	if err := payload.Validate(); err != nil {
		return ctrl.respondValidation(c, err)
	}

	ok, err := ctrl.Auth.Authenticate(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		return ctrl.respondError(c, err)
	}

	return c.JSON(fiber.Map{"credentials": ok})
}

func (ctrl *UserController) Token(c *fiber.Ctx) error {
	payload := new(AuthenticateRequest)
	if err := c.BodyParser(payload); err != nil {
		return ctrl.respondError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body"))
	}

	if err := payload.Validate(); err != nil {
		return ctrl.respondValidation(c, err)
	}

	token, err := ctrl.Auth.Login(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		return ctrl.respondError(c, err)
	}

	return c.JSON(fiber.Map{"token": token})
}

func (ctrl *UserController) Validate(c *fiber.Ctx) error {
	raw := bearerToken(c.Get(fiber.HeaderAuthorization))
	if raw == "" {
		return ctrl.respondError(c, ErrInvalidToken)
	}

	claims, err := ctrl.Auth.SessionFromToken(raw)
	if err != nil {
		return ctrl.respondError(c, err)
	}

	return c.JSON(claims)
}

func filterFromQuery(c *fiber.Ctx) (UserFilter, error) {
	filter := UserFilter{
		Name:               c.Query("name"),
		Email:              c.Query("email"),
		IncludeCredentials: c.QueryBool("credentials"),
		Offset:             c.QueryInt("offset"),
		Limit:              c.QueryInt("limit"),
	}

	for _, raw := range c.Context().QueryArgs().PeekMulti("id") {
		id, err := strconv.ParseInt(string(raw), 10, 64)
		if err != nil {
			return filter, goerrors.New("id must be numeric", goerrors.CategoryBadInput)
		}
		filter.IDs = append(filter.IDs, id)
	}

	if since := c.Query("updatedSince"); since != "" {
		ts, err := time.Parse(time.RFC3339, since)
		if err != nil {
			return filter, goerrors.New("updatedSince must be an RFC3339 timestamp", goerrors.CategoryBadInput)
		}
		filter.UpdatedSince = &ts
	}

	return filter, nil
}

func (ctrl *UserController) respondValidation(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func (ctrl *UserController) respondError(c *fiber.Ctx, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected server error occurred").
			WithCode(goerrors.CodeInternal)
	}

	ctrl.Logger.Info(
		"request error",
		"error", richErr.Message,
		"category", richErr.Category,
		"path", c.OriginalURL(),
	)

	return c.Status(statusFromError(richErr)).JSON(fiber.Map{
		"error":     richErr.Message,
		"text_code": richErr.TextCode,
	})
}

func statusFromError(err *goerrors.Error) int {
	switch err.Category {
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return fiber.StatusUnauthorized
	case goerrors.CategoryNotFound:
		return fiber.StatusNotFound
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		return fiber.StatusBadRequest
	case goerrors.CategoryConflict:
		return fiber.StatusConflict
	case goerrors.CategoryRateLimit:
		return fiber.StatusTooManyRequests
	default:
		if err.Code > 0 {
			return err.Code
		}
		return fiber.StatusInternalServerError
	}
}
