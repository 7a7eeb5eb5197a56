// Package prompt composes the synthesis request text for the morning boost.
//
// Composition is a pure function of the diary snapshot and the calendar
// date: no I/O, no randomness. The composed text is the instruction fed to
// the narration or speech stage.
package prompt

import (
	"strings"
	"time"

	"github.com/maum-on/boost-service/internal/core"
)

// dateLayout renders today's date in localized long form, e.g. "2026년 08월 30일".
const dateLayout = "2006년 01월 02일"

// personaHeader is prepended to every composed prompt regardless of branch.
// It fixes the persona, the ~30 second spoken length, the formal-polite
// register, and the anonymity rule: the listener is never addressed by
// name, nickname, ID, or any honorific.
const personaHeader = "너는 따뜻하고 긍정적인 한국어 아침 응원 코치야. " +
	"듣는 사람이 기운을 낼 수 있도록 30초 정도 분량으로, " +
	"말투는 부드럽고 친근하게, 존댓말로 이야기해 줘. " +
	"절대 사용자 이름이나 닉네임, ID를 말하지 말고, " +
	"'OO님', '사용자님', '~님' 같은 호칭도 사용하지 마. " +
	"상대를 특정하지 않고 자연스럽게 말을 건네듯 이야기해."

// keywordPlaceholder stands in for the keyword section when no file summary
// keywords exist.
const keywordPlaceholder = "키워드 없음"

// Section labels of the diary branch, in fixed order.
const (
	sectionEmotion    = "【감정 분석 결과】"
	sectionDiary      = "【일기 내용】"
	sectionKeywords   = "【파일 기반 요약 키워드】"
	sectionPriorReply = "【어제 AI가 남긴 답장】"
)

// Compose builds the synthesis request for a user's morning boost.
//
// The user identifier is accepted for interface stability but is never
// interpolated into the composed text; anonymity is a content invariant of
// every branch. A nil snapshot selects the generic encouragement branch.
func Compose(_ string, diary *core.DiarySnapshot, today time.Time) string {
	if diary == nil {
		return personaHeader + "\n\n" + genericBranch(today)
	}

	return personaHeader + "\n\n" + diaryBranch(diary, today)
}

// genericBranch asks for a generic boost: one light sentence, one or two
// actionable tips, today's date, no personal references.
func genericBranch(today time.Time) string {
	var b strings.Builder

	b.WriteString("오늘은 " + today.Format(dateLayout) + "이야.\n")
	b.WriteString("전날 일기가 없지만, 어제 하루를 나름대로 열심히 보냈을 거라고 생각하고 ")
	b.WriteString("오늘도 차분히 시작할 수 있도록 아침 응원 멘트를 만들어줘.\n")
	b.WriteString("- 가볍게 웃을 수 있는 문장 1개 포함\n")
	b.WriteString("- 오늘 바로 실천해볼 수 있는 현실적인 행동 팁 1~2개 포함\n")
	b.WriteString("- 특정 이름이나 호칭 없이 일반적인 형태로 말해줘\n")

	return b.String()
}

// diaryBranch lays out the four labeled sections in fixed order, then the
// instruction block.
func diaryBranch(diary *core.DiarySnapshot, today time.Time) string {
	keywords := keywordPlaceholder
	if len(diary.FileSummaryKeywords) > 0 {
		keywords = strings.Join(diary.FileSummaryKeywords, ", ")
	}

	var b strings.Builder

	b.WriteString("오늘은 " + today.Format(dateLayout) + "이야.\n")
	b.WriteString("아래는 어제 사용자가 남긴 일기와 백엔드가 제공한 요약 정보야.\n\n")

	b.WriteString(sectionEmotion + "\n")
	b.WriteString("- 감정 상태: " + diary.Emotion + "\n\n")

	b.WriteString(sectionDiary + "\n")
	b.WriteString(diary.NarrativeText + "\n\n")

	b.WriteString(sectionKeywords + "\n")
	b.WriteString(keywords + "\n\n")

	b.WriteString(sectionPriorReply + "\n")
	b.WriteString(diary.PriorAssistantReply + "\n\n")

	b.WriteString("위 정보를 모두 참고해서,\n")
	b.WriteString("- 어제의 감정을 먼저 공감해 주고,\n")
	b.WriteString("- 오늘 하루를 가볍고 따뜻하게 시작할 수 있도록 응원해 주고,\n")
	b.WriteString("- 말했을 때 약 30초 분량,\n")
	b.WriteString("- 라디오 DJ처럼 자연스럽고 부드럽게 존댓말로 이야기하고,\n")
	b.WriteString("- 부담스럽지 않고 현실적인 행동 팁 1~2개를 포함해 줘.\n")
	b.WriteString("- 절대 사용자 이름, 닉네임, ID, '~님', '사용자님' 등 호칭을 사용하지 말고,\n")
	b.WriteString("  특정 사람을 지칭하지 않는 자연스러운 응원 멘트로 작성해 줘.\n")

	return b.String()
}
