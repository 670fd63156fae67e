package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/beckershow/colaborador-portal/internal/api/dto"
	"github.com/beckershow/colaborador-portal/internal/service"
)

// FeedbackHandler exposes sending, moderation and listing of feedbacks.
type FeedbackHandler struct {
	feedback *service.FeedbackService
}

// NewFeedbackHandler constructs handler.
func NewFeedbackHandler(feedbackService *service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedback: feedbackService}
}

// Send handles POST /feedback.
func (h *FeedbackHandler) Send(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.SendFeedbackRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	fb, err := h.feedback.Send(c.UserContext(), user, req.ToInput())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewFeedbackResponse(fb)})
}

// Edit handles PUT /feedback/:id.
func (h *FeedbackHandler) Edit(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.EditFeedbackRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	fb, err := h.feedback.Edit(c.UserContext(), user, id, req.ToInput())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewFeedbackResponse(fb)})
}

// Delete handles DELETE /feedback/:id.
func (h *FeedbackHandler) Delete(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.feedback.Delete(c.UserContext(), user, id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Approve handles POST /feedback/:id/approve.
func (h *FeedbackHandler) Approve(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	fb, err := h.feedback.Approve(c.UserContext(), user, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewFeedbackResponse(fb)})
}

// Reject handles POST /feedback/:id/reject. The body is optional.
func (h *FeedbackHandler) Reject(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.RejectFeedbackRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return err
		}
	}

	fb, err := h.feedback.Reject(c.UserContext(), user, id, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewFeedbackResponse(fb)})
}

// Pending handles GET /feedback/pending.
func (h *FeedbackHandler) Pending(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	items, err := h.feedback.ListPending(c.UserContext(), user)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewFeedbackListResponse(items)})
}

// Sent handles GET /feedback/sent.
func (h *FeedbackHandler) Sent(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	items, err := h.feedback.ListSent(c.UserContext(), user)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewFeedbackListResponse(items)})
}

// Received handles GET /feedback/received.
func (h *FeedbackHandler) Received(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	items, err := h.feedback.ListReceived(c.UserContext(), user)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewFeedbackListResponse(items)})
}

// Limits handles GET /feedback/limits.
func (h *FeedbackHandler) Limits(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	status, err := h.feedback.LimitStatus(c.UserContext(), user)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewLimitStatusResponse(status)})
}
