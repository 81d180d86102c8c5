package controller

import (
	"io"
	"strings"

	"guided-dialogue-be/internal/dto"
	"guided-dialogue-be/internal/pkg/serverutils"
	"guided-dialogue-be/internal/service"
	"guided-dialogue-be/pkg/dialogue"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IDialogueController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	Index(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	SubmitTurn(ctx *fiber.Ctx) error
	ConfirmProblem(ctx *fiber.Ctx) error
	EditProblem(ctx *fiber.Ctx) error
	FinalAnswer(ctx *fiber.Ctx) error
	DismissEarlyComplete(ctx *fiber.Ctx) error
	Rename(ctx *fiber.Ctx) error
	Usage(ctx *fiber.Ctx) error
}

type dialogueController struct {
	dialogueService service.IDialogueService
}

func NewDialogueController(dialogueService service.IDialogueService) IDialogueController {
	return &dialogueController{
		dialogueService: dialogueService,
	}
}

func (c *dialogueController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/dialogue/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get("usage", c.Usage)
	h.Post("sessions", c.Create)
	h.Get("sessions", c.Index)
	h.Get("sessions/:id", c.Show)
	h.Delete("sessions/:id", c.Delete)
	h.Patch("sessions/:id/title", c.Rename)
	h.Post("sessions/:id/turns", c.SubmitTurn)
	h.Post("sessions/:id/confirm", c.ConfirmProblem)
	h.Put("sessions/:id/problem", c.EditProblem)
	h.Get("sessions/:id/answer", c.FinalAnswer)
	h.Post("sessions/:id/dismiss", c.DismissEarlyComplete)
}

func (c *dialogueController) Create(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.CreateSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	files, err := collectAttachments(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Could not read uploaded files"))
	}

	res, err := c.dialogueService.CreateSession(ctx.Context(), userId, &req, files)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create session", res))
}

func (c *dialogueController) Index(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	res, err := c.dialogueService.GetAllSessions(ctx.Context(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list sessions", res))
}

func (c *dialogueController) Show(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	id, _ := uuid.Parse(ctx.Params("id"))

	res, err := c.dialogueService.GetSession(ctx.Context(), userId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show session", res))
}

func (c *dialogueController) Delete(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	id, _ := uuid.Parse(ctx.Params("id"))

	if err := c.dialogueService.DeleteSession(ctx.Context(), userId, id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete session", nil))
}

func (c *dialogueController) SubmitTurn(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	id, _ := uuid.Parse(ctx.Params("id"))

	var req dto.SubmitTurnRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	files, err := collectAttachments(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Could not read uploaded files"))
	}

	res, err := c.dialogueService.SubmitTurn(ctx.Context(), userId, id, &req, files)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success submit turn", res))
}

func (c *dialogueController) ConfirmProblem(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	id, _ := uuid.Parse(ctx.Params("id"))

	res, err := c.dialogueService.ConfirmProblem(ctx.Context(), userId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success confirm problem", res))
}

func (c *dialogueController) EditProblem(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	id, _ := uuid.Parse(ctx.Params("id"))

	var req dto.EditProblemRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.dialogueService.EditProblem(ctx.Context(), userId, id, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success edit problem", res))
}

func (c *dialogueController) FinalAnswer(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	id, _ := uuid.Parse(ctx.Params("id"))

	res, err := c.dialogueService.ViewFinalAnswer(ctx.Context(), userId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get final answer", res))
}

func (c *dialogueController) DismissEarlyComplete(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	id, _ := uuid.Parse(ctx.Params("id"))

	if err := c.dialogueService.DismissEarlyComplete(ctx.Context(), userId, id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success dismiss early complete", nil))
}

func (c *dialogueController) Rename(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	id, _ := uuid.Parse(ctx.Params("id"))

	var req dto.RenameSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.dialogueService.RenameSession(ctx.Context(), userId, id, &req); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success rename session", nil))
}

func (c *dialogueController) Usage(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	res, err := c.dialogueService.GetUsage(ctx.Context(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get usage", res))
}

// collectAttachments reads the "files" parts of a multipart request into
// memory. JSON requests simply yield nil.
func collectAttachments(ctx *fiber.Ctx) ([]dialogue.Attachment, error) {
	if !strings.HasPrefix(ctx.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return nil, nil
	}

	form, err := ctx.MultipartForm()
	if err != nil {
		return nil, err
	}

	var files []dialogue.Attachment
	for _, header := range form.File["files"] {
		f, err := header.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, err
		}

		files = append(files, dialogue.Attachment{
			Name:      header.Filename,
			MediaType: header.Header.Get("Content-Type"),
			Size:      header.Size,
			Data:      data,
		})
	}

	return files, nil
}
