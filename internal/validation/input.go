package validation

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/pkg/apperror"
)

// Константы валидации
const (
	MaxProjectTitleLength       = 200
	MaxProjectDescriptionLength = 5000
	MaxCategoryLength           = 100
	MaxBidProposalLength        = 2000
	MaxAttachmentLinkLength     = 500
	MaxAttachmentsCount         = 10
)

func invalid(format string, args ...any) error {
	return apperror.New(apperror.ErrCodeValidation, fmt.Sprintf(format, args...))
}

// ValidateLength проверяет длину строки в символах.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return invalid("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return invalid("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateRequired проверяет непустую строку ограниченной длины.
func ValidateRequired(fieldName, value string, max int) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return invalid("%s обязательно", fieldName)
	}
	return ValidateLength(fieldName, value, 0, max)
}

func ValidateProjectTitle(title string) error {
	return ValidateRequired("название проекта", title, MaxProjectTitleLength)
}

func ValidateProjectDescription(description string) error {
	return ValidateRequired("описание проекта", description, MaxProjectDescriptionLength)
}

func ValidateCategory(category string) error {
	return ValidateLength("категория", strings.TrimSpace(category), 0, MaxCategoryLength)
}

func ValidateBidProposal(proposal string) error {
	return ValidateRequired("текст предложения", proposal, MaxBidProposalLength)
}

// ValidateAttachments проверяет ссылки на вложения: http(s) URL с доменом.
func ValidateAttachments(links []string) error {
	if len(links) > MaxAttachmentsCount {
		return invalid("не более %d вложений", MaxAttachmentsCount)
	}
	for _, link := range links {
		if err := validateLink(link); err != nil {
			return err
		}
	}
	return nil
}

func validateLink(link string) error {
	link = strings.TrimSpace(link)
	if err := ValidateLength("ссылка на вложение", link, 1, MaxAttachmentLinkLength); err != nil {
		return err
	}

	parsedURL, err := url.Parse(link)
	if err != nil {
		return invalid("некорректный формат URL вложения")
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return invalid("ссылка на вложение должна начинаться с http:// или https://")
	}
	if parsedURL.Host == "" {
		return invalid("ссылка на вложение должна содержать доменное имя")
	}
	return nil
}
