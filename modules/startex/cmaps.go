package startex

// Character encodings of the Computer Modern fonts, mapped to Unicode.

var greekUpper = [11]rune{'Γ', 'Δ', 'Θ', 'Λ', 'Ξ', 'Π', 'Σ', 'Υ', 'Φ', 'Ψ', 'Ω'}

var cmrSpecial = map[uint32]rune{
	11: 'ﬀ', 12: 'ﬁ', 13: 'ﬂ', 14: 'ﬃ', 15: 'ﬄ', 16: 'ı', 17: 'ȷ',
	18: '`', 19: '´', 20: 'ˇ', 21: '˘', 22: '¯', 23: '˚', 24: '¸',
	25: 'ß', 26: 'æ', 27: 'œ', 28: 'ø', 29: 'Æ', 30: 'Œ', 31: 'Ø',
	34: '”', 39: '’', 60: '¡', 62: '¿', 92: '“', 94: 'ˆ', 95: '˙', 96: '‘',
	123: '–', 124: '—', 125: '˝', 126: '˜', 127: '¨',
}

func cmr(code uint32) rune {
	if code < uint32(len(greekUpper)) {
		return greekUpper[code]
	}
	if r, ok := cmrSpecial[code]; ok {
		return r
	}
	return rune(code)
}

func cmtt(code uint32) rune {
	if code < uint32(len(greekUpper)) {
		return greekUpper[code]
	}
	return rune(code)
}

var cmmiSpecial = map[uint32]rune{
	11: 'α', 12: 'β', 13: 'γ', 14: 'δ', 15: 'ϵ', 16: 'ζ', 17: 'η', 18: 'θ',
	19: 'ι', 20: 'κ', 21: 'λ', 22: 'μ', 23: 'ν', 24: 'ξ', 25: 'π', 26: 'ρ',
	27: 'σ', 28: 'τ', 29: 'υ', 30: 'ϕ', 31: 'χ', 32: 'ψ', 33: 'ω', 34: 'ε',
	35: 'ϑ', 36: 'ϖ', 37: 'ϱ', 38: 'ς', 39: 'φ', 40: '↼', 41: '↽', 42: '⇀',
	43: '⇁', 46: '▹', 47: '◃', 58: '.', 59: ',', 60: '<', 61: '/', 62: '>',
	63: '⋆', 64: '∂', 91: '♭', 92: '♮', 93: '♯', 94: '⌣', 95: '⌢', 96: 'ℓ',
	123: 'ı', 124: 'ȷ', 125: '℘', 126: '→', 127: '⁀',
}

func cmmi(code uint32) rune {
	if code < uint32(len(greekUpper)) {
		return greekUpper[code]
	}
	if r, ok := cmmiSpecial[code]; ok {
		return r
	}
	return rune(code)
}

var cmsyTable = [128]rune{
	'−', '·', '×', '∗', '÷', '⋄', '±', '∓', '⊕', '⊖', '⊗', '⊘', '⊙', '◯', '∘', '•',
	'≍', '≡', '⊆', '⊇', '≤', '≥', '⪯', '⪰', '∼', '≈', '⊂', '⊃', '≪', '≫', '≺', '≻',
	'←', '→', '↑', '↓', '↔', '↗', '↘', '≃', '⇐', '⇒', '⇑', '⇓', '⇔', '↖', '↙', '∝',
	'′', '∞', '∈', '∋', '△', '▽', '/', '↦', '∀', '∃', '¬', '∅', 'ℜ', 'ℑ', '⊤', '⊥',
	'ℵ', '𝒜', 'ℬ', '𝒞', '𝒟', 'ℰ', 'ℱ', '𝒢', 'ℋ', 'ℐ', '𝒥', '𝒦', 'ℒ', 'ℳ', '𝒩', '𝒪',
	'𝒫', '𝒬', 'ℛ', '𝒮', '𝒯', '𝒰', '𝒱', '𝒲', '𝒳', '𝒴', '𝒵', '∪', '∩', '⊎', '∧', '∨',
	'⊢', '⊣', '⌊', '⌋', '⌈', '⌉', '{', '}', '⟨', '⟩', '|', '‖', '↕', '⇕', '∖', '≀',
	'√', '⨿', '∇', '∫', '⊔', '⊓', '⊑', '⊒', '§', '†', '‡', '¶', '♣', '♢', '♡', '♠',
}

func cmsy(code uint32) rune {
	if code < uint32(len(cmsyTable)) {
		return cmsyTable[code]
	}
	return rune(code)
}

// Delimiters repeat in growing sizes; the outlines are drawn at base size.
var cmexDelims = [16]rune{'(', ')', '[', ']', '⌊', '⌋', '⌈', '⌉', '{', '}', '⟨', '⟩', '|', '‖', '/', '\\'}

var cmexBigDelims = [16]rune{'(', ')', '(', ')', '[', ']', '⌊', '⌋', '⌈', '⌉', '{', '}', '⟨', '⟩', '/', '\\'}

var cmexOperators = [16]rune{'∑', '∏', '∫', '⋃', '⋂', '⨄', '⋀', '⋁', '∑', '∏', '∫', '⋃', '⋂', '⨄', '⋀', '⋁'}

func cmex(code uint32) rune {
	switch {
	case code < 16:
		return cmexDelims[code]
	case code < 48:
		return cmexBigDelims[(code-16)%16]
	case code >= 80 && code < 96:
		return cmexOperators[code-80]
	case code >= 112 && code <= 116:
		return '√'
	}
	return rune(code)
}
