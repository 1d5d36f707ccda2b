package accounts

import (
	"context"
	"errors"
	"image"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"

	"github.com/revenuehive/accounts/middleware/tokenauth"
)

// APIControllerRoutes lists the mount points for every operation.
type APIControllerRoutes struct {
	Register      string
	Login         string
	Logout        string
	ConfirmEmail  string
	Profile       string
	EditProfile   string
	Avatar        string
	Questionnaire string
	Users         string
	Profiles      string
}

// APIController exposes the account lifecycle over JSON.
type APIController struct {
	Logger   Logger
	Repo     RepositoryManager
	Auther   *Authenticator
	Codec    *ConfirmationCodec
	Notifier Notifier
	Avatars  AvatarStore
	Routes   *APIControllerRoutes

	// BaseURL is the public origin used in confirmation links; FromEmail
	// and OpsEmail are the transactional sender and the questionnaire
	// destination.
	BaseURL   string
	FromEmail string
	OpsEmail  string
}

// APIControllerOption configures the controller.
type APIControllerOption func(*APIController) *APIController

// WithRepository sets the repository manager.
func WithRepository(repo RepositoryManager) APIControllerOption {
	return func(a *APIController) *APIController {
		a.Repo = repo
		return a
	}
}

// WithAuthenticator sets the credential verifier.
func WithAuthenticator(auther *Authenticator) APIControllerOption {
	return func(a *APIController) *APIController {
		a.Auther = auther
		return a
	}
}

// WithConfirmationCodec sets the confirmation token codec.
func WithConfirmationCodec(codec *ConfirmationCodec) APIControllerOption {
	return func(a *APIController) *APIController {
		a.Codec = codec
		return a
	}
}

// WithNotifier sets the outbound mail collaborator.
func WithNotifier(n Notifier) APIControllerOption {
	return func(a *APIController) *APIController {
		a.Notifier = n
		return a
	}
}

// WithAvatarStore sets the avatar storage backend.
func WithAvatarStore(s AvatarStore) APIControllerOption {
	return func(a *APIController) *APIController {
		a.Avatars = s
		return a
	}
}

// WithControllerLogger sets the controller logger.
func WithControllerLogger(l Logger) APIControllerOption {
	return func(a *APIController) *APIController {
		if l != nil {
			a.Logger = l
		}
		return a
	}
}

// WithMailSettings sets link origin, sender, and ops destination.
func WithMailSettings(baseURL, from, ops string) APIControllerOption {
	return func(a *APIController) *APIController {
		a.BaseURL = baseURL
		a.FromEmail = from
		a.OpsEmail = ops
		return a
	}
}

// NewAPIController builds the controller, panicking on missing mandatory
// collaborators so wiring mistakes surface at boot.
func NewAPIController(opts ...APIControllerOption) *APIController {
	c := &APIController{
		Logger: defLogger{},
		Routes: &APIControllerRoutes{
			Register:      "/register",
			Login:         "/login",
			Logout:        "/logout",
			ConfirmEmail:  "/confirm-email/:uid/:token",
			Profile:       "/profile",
			EditProfile:   "/edit-profile",
			Avatar:        "/profile/avatar",
			Questionnaire: "/questionnaire",
			Users:         "/users",
			Profiles:      "/profiles",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in accounts controller...")
	}

	if c.Auther == nil {
		panic("Missing Authenticator in accounts controller...")
	}

	if c.Codec == nil {
		panic("Missing ConfirmationCodec in accounts controller...")
	}

	if c.Notifier == nil {
		panic("Missing Notifier in accounts controller...")
	}

	return c
}

// RegisterRoutes mounts every operation on app.
func (a *APIController) RegisterRoutes(app *fiber.App) {
	app.Post(a.Routes.Register, a.Register)
	app.Post(a.Routes.Login, a.Login)
	app.Get(a.Routes.ConfirmEmail, a.ConfirmEmail)

	protected := tokenauth.New(tokenauth.Config{
		Resolver: func(ctx context.Context, key string) (any, error) {
			return a.Auther.AccountFromToken(ctx, key)
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return a.renderError(c, ErrInvalidAuthToken)
		},
	})

	app.Post(a.Routes.Logout, protected, a.Logout)
	app.Get(a.Routes.Profile, protected, a.ProfileShow)
	app.Put(a.Routes.EditProfile, protected, a.EditProfile)
	app.Put(a.Routes.Avatar, protected, a.UploadAvatar)
	app.Post(a.Routes.Questionnaire, protected, a.Questionnaire)

	app.Get(a.Routes.Users, protected, a.requireAdmin, a.ListUsers)
	app.Get(a.Routes.Users+"/:id", protected, a.requireAdmin, a.ShowUser)
	app.Delete(a.Routes.Users+"/:id", protected, a.requireAdmin, a.DeleteUser)
	app.Get(a.Routes.Profiles, protected, a.requireAdmin, a.ListProfiles)
	app.Get(a.Routes.Profiles+"/:id", protected, a.requireAdmin, a.ShowProfile)
}

// RegisterPayload is the registration body
type RegisterPayload struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r RegisterPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(3, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(10, 100)),
	)
}

func (a *APIController) Register(c *fiber.Ctx) error {
	payload := new(RegisterPayload)

	if err := c.BodyParser(payload); err != nil {
		return a.renderParseError(c, err)
	}

	if err := payload.Validate(); err != nil {
		return a.renderValidationError(c, err)
	}

	handler := NewRegisterAccountHandler(a.Repo, a.Codec, a.Notifier, a.BaseURL, a.FromEmail).
		WithLogger(a.Logger)

	msg := RegisterAccountMessage{
		Username: payload.Username,
		Email:    payload.Email,
		Password: payload.Password,
	}

	if err := handler.Execute(c.UserContext(), msg); err != nil {
		a.Logger.Error("register account error: ", "error", err)
		return a.renderError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully! Check your email for confirmation.",
	})
}

// LoginPayload is the login body
type LoginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r LoginPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *APIController) Login(c *fiber.Ctx) error {
	payload := new(LoginPayload)

	if err := c.BodyParser(payload); err != nil {
		return a.renderParseError(c, err)
	}

	if err := payload.Validate(); err != nil {
		return a.renderValidationError(c, err)
	}

	key, err := a.Auther.Login(c.UserContext(), payload.Username, payload.Password)
	if err != nil {
		a.Logger.Error("login error: ", "error", err)
		return a.renderError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"token": key})
}

func (a *APIController) ConfirmEmail(c *fiber.Ctx) error {
	handler := NewConfirmAccountHandler(a.Repo, a.Codec).WithLogger(a.Logger)

	msg := ConfirmAccountMessage{
		UID:   c.Params("uid"),
		Token: c.Params("token"),
	}

	if err := handler.Execute(c.UserContext(), msg); err != nil {
		return a.renderError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Email confirmed successfully!",
	})
}

func (a *APIController) Logout(c *fiber.Ctx) error {
	key := tokenauth.TokenKey(c)

	if err := a.Auther.Logout(c.UserContext(), key); err != nil {
		a.Logger.Error("logout error: ", "error", err)
		return a.renderError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Logged out successfully!",
	})
}

func (a *APIController) ProfileShow(c *fiber.Ctx) error {
	acct, err := a.caller(c)
	if err != nil {
		return a.renderError(c, err)
	}

	profile, err := a.Repo.Profiles().GetByAccountID(c.UserContext(), acct.ID)
	if err != nil {
		return a.renderError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(profile)
}

// EditProfilePayload is the full-replace profile body. Omitted fields are
// written as empty values; this mirrors the replace semantics documented on
// the edit operation.
type EditProfilePayload struct {
	DisplayName       string `json:"user_name"`
	CompanyName       string `json:"company_name"`
	JobTitle          string `json:"job_title"`
	YearsOfExperience int    `json:"years_of_experience"`
	Bio               string `json:"bio"`
	Phone             string `json:"phone"`
	Email             string `json:"email"`
}

// Validate will run validation rules
func (r EditProfilePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.DisplayName, validation.Length(0, 200)),
		validation.Field(&r.CompanyName, validation.Length(0, 200)),
		validation.Field(&r.JobTitle, validation.Length(0, 200)),
		validation.Field(&r.YearsOfExperience, validation.Min(0)),
		validation.Field(&r.Bio, validation.Length(0, 1000)),
		validation.Field(&r.Phone, validation.Length(0, 20), is.Digit),
		validation.Field(&r.Email, is.Email),
	)
}

func (a *APIController) EditProfile(c *fiber.Ctx) error {
	acct, err := a.caller(c)
	if err != nil {
		return a.renderError(c, err)
	}

	payload := new(EditProfilePayload)

	if err := c.BodyParser(payload); err != nil {
		return a.renderParseError(c, err)
	}

	if err := payload.Validate(); err != nil {
		return a.renderValidationError(c, err)
	}

	var updated *Profile

	msg := EditProfileMessage{
		AccountID:         acct.ID,
		DisplayName:       payload.DisplayName,
		CompanyName:       payload.CompanyName,
		JobTitle:          payload.JobTitle,
		YearsOfExperience: payload.YearsOfExperience,
		Bio:               payload.Bio,
		Phone:             payload.Phone,
		Email:             payload.Email,
		OnResponse: func(p *Profile) {
			updated = p
		},
	}

	handler := NewEditProfileHandler(a.Repo)
	if err := handler.Execute(c.UserContext(), msg); err != nil {
		a.Logger.Error("edit profile error: ", "error", err)
		return a.renderError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Profile updated successfully!",
		"profile": updated,
	})
}

func (a *APIController) UploadAvatar(c *fiber.Ctx) error {
	if a.Avatars == nil {
		return a.renderError(c, goerrors.New("avatar storage is not configured", goerrors.CategoryInternal))
	}

	acct, err := a.caller(c)
	if err != nil {
		return a.renderError(c, err)
	}

	fh, err := c.FormFile("image")
	if err != nil {
		return a.renderValidationError(c, validation.Errors{
			"image": errors.New("image file is required"),
		})
	}

	f, err := fh.Open()
	if err != nil {
		return a.renderParseError(c, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return a.renderValidationError(c, validation.Errors{
			"image": errors.New("unsupported or corrupt image"),
		})
	}

	ref, err := a.Avatars.Save(c.UserContext(), acct.ID, img)
	if err != nil {
		a.Logger.Error("avatar save error: ", "error", err)
		return a.renderError(c, err)
	}

	if err := a.Repo.Profiles().SetImage(c.UserContext(), acct.ID, ref); err != nil {
		a.Logger.Error("avatar reference update error: ", "error", err)
		return a.renderError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"image": ref})
}

// QuestionnairePayload carries the onboarding answers. Presence only; the
// answers are forwarded verbatim to the ops address.
type QuestionnairePayload struct {
	EmploymentStatus string `json:"employment_status"`
	JobTitle         string `json:"job_title"`
	Industry         string `json:"industry"`
	ReasonForJoining string `json:"reason_for_joining"`
}

// Validate will run validation rules
func (r QuestionnairePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.EmploymentStatus, validation.Required),
		validation.Field(&r.JobTitle, validation.Required),
		validation.Field(&r.Industry, validation.Required),
		validation.Field(&r.ReasonForJoining, validation.Required),
	)
}

func (a *APIController) Questionnaire(c *fiber.Ctx) error {
	acct, err := a.caller(c)
	if err != nil {
		return a.renderError(c, err)
	}

	payload := new(QuestionnairePayload)

	if err := c.BodyParser(payload); err != nil {
		return a.renderParseError(c, err)
	}

	if err := payload.Validate(); err != nil {
		return a.renderValidationError(c, err)
	}

	handler := NewQuestionnaireHandler(a.Repo, a.Notifier, a.FromEmail, a.OpsEmail).
		WithLogger(a.Logger)

	msg := QuestionnaireMessage{
		AccountID:        acct.ID,
		Username:         acct.Username,
		EmploymentStatus: payload.EmploymentStatus,
		JobTitle:         payload.JobTitle,
		Industry:         payload.Industry,
		ReasonForJoining: payload.ReasonForJoining,
	}

	if err := handler.Execute(c.UserContext(), msg); err != nil {
		a.Logger.Error("questionnaire error: ", "error", err)
		return a.renderError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Questionnaire submitted successfully!",
	})
}

func (a *APIController) ListUsers(c *fiber.Ctx) error {
	limit, offset := listBounds(c)

	records, err := a.Repo.Accounts().List(c.UserContext(), limit, offset)
	if err != nil {
		return a.renderError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"users": records})
}

func (a *APIController) ShowUser(c *fiber.Ctx) error {
	record, err := a.Repo.Accounts().GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return a.renderError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(record)
}

func (a *APIController) DeleteUser(c *fiber.Ctx) error {
	id, err := parseID(c.Params("id"))
	if err != nil {
		return a.renderError(c, err)
	}

	if err := a.Repo.Accounts().Remove(c.UserContext(), id); err != nil {
		return a.renderError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "User deleted"})
}

func (a *APIController) ListProfiles(c *fiber.Ctx) error {
	limit, offset := listBounds(c)

	records, err := a.Repo.Profiles().List(c.UserContext(), limit, offset)
	if err != nil {
		return a.renderError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"profiles": records})
}

func (a *APIController) ShowProfile(c *fiber.Ctx) error {
	record, err := a.Repo.Profiles().GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return a.renderError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(record)
}

// requireAdmin gates the generic collection routes: the raw CRUD surface is
// operator-only, never an open viewset.
func (a *APIController) requireAdmin(c *fiber.Ctx) error {
	acct, err := a.caller(c)
	if err != nil {
		return a.renderError(c, err)
	}

	if !acct.IsAdmin() {
		return a.renderError(c, ErrAdminRequired)
	}

	return c.Next()
}

func (a *APIController) caller(c *fiber.Ctx) (*Account, error) {
	acct, ok := c.Locals(tokenauth.DefaultContextKey).(*Account)
	if !ok || acct == nil {
		return nil, ErrInvalidAuthToken
	}
	return acct, nil
}

func (a *APIController) renderParseError(c *fiber.Ctx, err error) error {
	a.Logger.Error("parse payload: ", "error", err)
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "failed to parse request body",
	})
}

func (a *APIController) renderValidationError(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"errors": FormatValidationErrorToMap(err),
	})
}

func (a *APIController) renderError(c *fiber.Ctx, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		a.Logger.Error("unhandled error: ", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}

	status := statusFromError(err, richErr)

	if status == fiber.StatusInternalServerError {
		a.Logger.Error("internal error: ", "error", err)
		return c.Status(status).JSON(fiber.Map{"error": "internal server error"})
	}

	body := fiber.Map{"error": richErr.Message}
	if richErr.TextCode != "" {
		body["code"] = richErr.TextCode
	}
	if fields := fieldErrors(richErr); len(fields) > 0 {
		body["errors"] = fields
	}

	return c.Status(status).JSON(body)
}

func statusFromError(err error, richErr *goerrors.Error) int {
	switch {
	case errors.Is(err, ErrAccountNotConfirmed), errors.Is(err, ErrAdminRequired):
		return fiber.StatusForbidden
	case errors.Is(err, ErrInvalidAuthToken):
		return fiber.StatusUnauthorized
	}

	switch richErr.Category {
	case goerrors.CategoryValidation, goerrors.CategoryBadInput, goerrors.CategoryAuth:
		return fiber.StatusBadRequest
	case goerrors.CategoryConflict:
		return fiber.StatusConflict
	case goerrors.CategoryNotFound:
		return fiber.StatusNotFound
	case goerrors.CategoryRateLimit:
		return fiber.StatusTooManyRequests
	default:
		return fiber.StatusInternalServerError
	}
}

func fieldErrors(richErr *goerrors.Error) map[string]string {
	if richErr.Metadata == nil {
		return nil
	}

	fields, ok := richErr.Metadata["fields"].(map[string]string)
	if !ok {
		return nil
	}

	return fields
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, goerrors.Wrap(err, goerrors.CategoryValidation, "malformed record identifier").
			WithCode(goerrors.CodeBadRequest)
	}
	return id, nil
}

func listBounds(c *fiber.Ctx) (int, int) {
	limit := 50
	offset := 0

	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 && v <= 200 {
		limit = v
	}

	if v, err := strconv.Atoi(c.Query("offset")); err == nil && v >= 0 {
		offset = v
	}

	return limit, offset
}
