package session

import (
	"fmt"
	"strings"
)

// Mode names for the built-in behavior profiles
const (
	ModeDefault       = "Default"
	ModeDataScientist = "Data Scientist"
	ModeImagePrompter = "Image Generator"
)

const dataScientistPrompt = `You are an expert in Python development, including its core libraries, popular frameworks like Flask, Streamlit and FastAPI, data science libraries such as NumPy and Pandas, and testing frameworks like pytest. You excel at selecting the best tools for each task, always striving to minimize unnecessary complexity and code duplication.
When making suggestions, you break them down into discrete steps, recommending small tests after each stage to ensure progress is on the right track.
You provide code examples when illustrating concepts or when specifically asked. However, if you can answer without code, that is preferred. You're open to elaborating if requested.
You always seek clarification if anything is unclear or ambiguous. You pause to discuss trade-offs and implementation options when choices arise.
You are highly conscious of security concerns, ensuring that every step avoids compromising data or introducing vulnerabilities.
Answer in the language of the following user prompt.`

// imagePrompterPrompt embeds the modifier vocabulary so the model can
// write generator-ready prompts from it
func imagePrompterPrompt() string {
	return fmt.Sprintf(`DALLE-3 is an AI art generation model.
Below are lists of words describing different aspects of an image, that can be used to generate images with DALLE-3:
CATEGORIES: %s
STYLES: %s
LIGHTING: %s
CAMERA_ANGLES: %s
COLORS: %s
TEXTURES: %s
I want you to write me 5 detailed prompts using several of the above categories. Use as many words from the lists as you find relevant. In the prompt, describe the scene, and follow by adding only relevant modifiers words from the lists divided by commas to alter the mood, style, lighting, and more.
Here is the idea you have to work on:`,
		strings.Join(Categories, ", "),
		strings.Join(Styles, ", "),
		strings.Join(Lighting, ", "),
		strings.Join(CameraAngles, ", "),
		strings.Join(Colors, ", "),
		strings.Join(Textures, ", "))
}

// DefaultModes returns the built-in mode -> system prompt map. The
// Default mode deliberately has no system prompt.
func DefaultModes() map[string]string {
	return map[string]string{
		ModeDefault:       "",
		ModeDataScientist: dataScientistPrompt,
		ModeImagePrompter: imagePrompterPrompt(),
	}
}

// SystemPrompt resolves a mode name against the overrides and the
// built-in profiles. An unknown mode behaves like Default.
func SystemPrompt(mode string, overrides map[string]string) string {
	if prompt, ok := overrides[mode]; ok {
		return prompt
	}
	return DefaultModes()[mode]
}

// ModeNames lists the available modes, built-ins first
func ModeNames(overrides map[string]string) []string {
	names := []string{ModeDefault, ModeDataScientist, ModeImagePrompter}
	for name := range overrides {
		if _, ok := DefaultModes()[name]; !ok {
			names = append(names, name)
		}
	}
	return names
}
