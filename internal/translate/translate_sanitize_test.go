package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeAIText_RemovesInlineParenthesizedDisclaimer(t *testing.T) {
	in := "بیت کوین رکورد زد\n(Note: This translation is a machine translation and may contain errors. Always double-check with a reliable source.) قیمت اتریوم نیز بالا رفت."

	out := SanitizeAIText(in)

	assert.NotContains(t, out, "Note:")
	assert.Contains(t, out, "بیت کوین رکورد زد")
	assert.Contains(t, out, "قیمت اتریوم نیز بالا رفت.")
}

func TestSanitizeAIText_RemovesFullLineNote(t *testing.T) {
	in := "Note: This translation is a machine translation and may contain errors.\nقیمت اتریوم نیز بالا رفت."

	out := SanitizeAIText(in)

	assert.Equal(t, "قیمت اتریوم نیز بالا رفت.", out)
}

func TestSanitizeAIText_RemovesBracketedDisclaimer(t *testing.T) {
	out := SanitizeAIText("[Note: Machine translation] این یک خط آزمایشی است.")

	assert.Equal(t, "این یک خط آزمایشی است.", out)
}

func TestSanitizeAIText_KeepsOrdinaryBrackets(t *testing.T) {
	in := "بیت کوین (BTC) به ۷۰ هزار دلار رسید [گزارش]"

	assert.Equal(t, in, SanitizeAIText(in))
}
