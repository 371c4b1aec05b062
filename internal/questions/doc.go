// Package questions generates OCR probe questions at graded difficulty for
// dataset items that do not carry a pre-authored question.
package questions
