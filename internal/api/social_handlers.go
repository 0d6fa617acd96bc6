package api

import (
	"net/http"

	"marketplace-service/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *Handler) createOffer(c *gin.Context) {
	var req service.CreateOfferRequest
	if !h.bindJSON(c, &req) {
		return
	}

	offer, err := h.svc.Offers.CreateOffer(c.Request.Context(), actor(c), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, offer)
}

func (h *Handler) respondOffer(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req service.RespondOfferRequest
	if !h.bindJSON(c, &req) {
		return
	}

	offer, err := h.svc.Offers.RespondOffer(c.Request.Context(), actor(c), id, &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, offer)
}

func (h *Handler) listOffers(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	offers, err := h.svc.Offers.ListProductOffers(c.Request.Context(), actor(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, offers)
}

func (h *Handler) askQuestion(c *gin.Context) {
	var req service.AskQuestionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	question, err := h.svc.Questions.Ask(c.Request.Context(), actor(c), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, question)
}

func (h *Handler) listQuestions(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	questions, err := h.svc.Questions.ListByProduct(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, questions)
}

func (h *Handler) answerQuestion(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req service.AnswerQuestionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	question, err := h.svc.Questions.Answer(c.Request.Context(), actor(c), id, &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, question)
}

func (h *Handler) sendMessage(c *gin.Context) {
	var req service.SendMessageRequest
	if !h.bindJSON(c, &req) {
		return
	}

	msg, err := h.svc.Messages.Send(c.Request.Context(), actor(c), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h *Handler) listMessages(c *gin.Context) {
	messages, err := h.svc.Messages.List(c.Request.Context(), actor(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

func (h *Handler) markMessageRead(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	msg, err := h.svc.Messages.MarkRead(c.Request.Context(), actor(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}
