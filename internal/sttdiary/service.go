// Package sttdiary turns a recorded voice memo into a polished diary entry:
// first transcription, then a language-model rewrite into first-person prose.
package sttdiary

import (
	"context"
	"fmt"
	"strings"

	"github.com/book-expert/logger"

	"github.com/maum-on/boost-service/internal/core"
)

// Rewrite instructions. The system turn fixes the register (first person,
// plain everyday Korean); the user turn carries the raw transcript.
const (
	rewriteSystemPrompt = "너는 한국어 일기 작성 도우미야. " +
		"사용자가 말한 내용을 자연스럽고 정돈된 한 편의 일기로 정리해줘. " +
		"1인칭 시점, 오늘 하루를 돌아보는 느낌으로, 과한 꾸밈말은 피하고 일상적인 말투로 써줘."

	rewriteUserPromptFormat = "다음은 사용자가 음성으로 말한 내용을 문자로 옮긴 결과야.\n" +
		"이 내용을 바탕으로 자연스러운 한국어 일기를 한 편 써줘.\n\n" +
		"[음성 인식 결과]\n%s"
)

// Rewriter produces a completion for a system+user instruction pair.
type Rewriter interface {
	Complete(ctx context.Context, model, systemPrompt, userPrompt string) (string, error)
}

// Result carries both stages' output so callers can show the raw transcript
// alongside the rewritten entry.
type Result struct {
	Transcript string `json:"transcript"`
	Diary      string `json:"diary"`
}

// Service converts audio bytes into a diary entry.
type Service struct {
	transcriber core.Transcriber
	rewriter    Rewriter
	diaryModel  string
	log         *logger.Logger
}

// New creates a Service bound to one rewrite model.
func New(transcriber core.Transcriber, rewriter Rewriter, diaryModel string, log *logger.Logger) *Service {
	return &Service{
		transcriber: transcriber,
		rewriter:    rewriter,
		diaryModel:  diaryModel,
		log:         log,
	}
}

// AudioToDiary runs both stages. Either stage failing aborts the conversion;
// there is no partial result.
func (s *Service) AudioToDiary(ctx context.Context, audio []byte, filename string) (*Result, error) {
	transcript, err := s.transcriber.Transcribe(ctx, audio, filename)
	if err != nil {
		return nil, fmt.Errorf("transcription stage failed: %w", err)
	}

	s.log.Info("Transcribed %s (%d chars)", filename, len(transcript))

	diaryText, err := s.rewriter.Complete(
		ctx,
		s.diaryModel,
		rewriteSystemPrompt,
		fmt.Sprintf(rewriteUserPromptFormat, transcript),
	)
	if err != nil {
		return nil, fmt.Errorf("diary rewrite stage failed: %w", err)
	}

	return &Result{
		Transcript: transcript,
		Diary:      strings.TrimSpace(diaryText),
	}, nil
}
