package ollama

const recognitionPrompt = `Transcribe the mathematical formula in this image into LaTeX.
Return only the LaTeX source of the formula.
No surrounding $ signs, no markdown, no explanation.
If the image contains several formulas, return the most prominent one.`
