package handler

import (
	"quiz-forge/internal/domain"
	"quiz-forge/internal/dto"
	"quiz-forge/internal/placeholder"
	"quiz-forge/internal/service"
	"quiz-forge/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// QuizHandler handles quiz-related HTTP requests
type QuizHandler struct {
	service   service.QuizService
	validator *validation.Validator
}

// NewQuizHandler creates a new QuizHandler instance
func NewQuizHandler(service service.QuizService, validator *validation.Validator) *QuizHandler {
	return &QuizHandler{
		service:   service,
		validator: validator,
	}
}

// GenerateQuiz handles POST /api/quizzes/generate
func (h *QuizHandler) GenerateQuiz(c *fiber.Ctx) error {
	var body dto.GenerateQuizRequest
	if err := c.BodyParser(&body); err != nil {
		return domain.NewInvalidInputError("Invalid request body")
	}
	if err := h.validator.Struct(&body); err != nil {
		return err
	}

	req, err := body.ToDomain()
	if err != nil {
		return err
	}

	quiz, err := h.service.GenerateQuiz(c.UserContext(), req, c.Get("X-User-ID"), nil)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewQuizResponse(quiz))
}

// GetQuiz handles GET /api/quizzes/:id
func (h *QuizHandler) GetQuiz(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return domain.ValidationErrors{domain.NewMissingFieldError("id")}
	}

	quiz, err := h.service.GetQuiz(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewQuizResponse(quiz))
}

// GenerateImage handles POST /api/images. It always answers 200 with either
// a generated image or a placeholder.
func (h *QuizHandler) GenerateImage(c *fiber.Ctx) error {
	var body dto.ImageRequest
	if err := c.BodyParser(&body); err != nil {
		return domain.NewInvalidInputError("Invalid request body")
	}
	if err := h.validator.Struct(&body); err != nil {
		return err
	}

	image := h.service.GenerateImage(c.UserContext(), body.Prompt, body.UserCredentials)
	return c.JSON(dto.ImageResponse{
		Image:       image,
		Placeholder: placeholder.IsPlaceholder(image),
	})
}

// GetKeyHealth handles GET /api/keys/health
func (h *QuizHandler) GetKeyHealth(c *fiber.Ctx) error {
	keys := h.service.KeyHealth()
	if keys == nil {
		keys = []domain.KeyHealthRecord{}
	}
	return c.JSON(dto.KeyHealthResponse{Keys: keys})
}

// ValidateProvider handles GET /api/provider/validate
func (h *QuizHandler) ValidateProvider(c *fiber.Ctx) error {
	return c.JSON(h.service.ValidateProvider(c.UserContext()))
}
