package main

import (
	"fmt"
	"math/rand"
)

var questions = [3]string{
	"Should AI companies be required to share their training data with the public?",
	"Should the government heavily regulate AI to prevent corporate misuse?",
	"Should social media platforms use AI to actively remove harmful political speech?",
}

type persona struct {
	identity string
	speech   string
	markers  string
}

// spectrumPersonas maps a 1 (far left) to 10 (far right) position onto a
// distinct voice so generated answers stay diverse.
var spectrumPersonas = map[int]persona{
	1:  {"radical activist, possibly anarchist", "angry, uses profanity, anti-establishment rhetoric, mentions revolution/capitalism", "fuck the system, tear it down, corporate pigs, bootlickers"},
	2:  {"progressive millennial/gen-z, very online", "uses twitter speak, mentions systemic issues, social justice language", "literally, toxic, problematic, yikes, solidarity"},
	3:  {"liberal professional, NPR listener", "measured, cites studies/experts, nuanced takes", "studies show, experts say, on one hand, it's complicated"},
	4:  {"moderate democrat, suburban", "practical concerns, mentions both sides, compromise-oriented", "both sides have points, middle ground, reasonable people"},
	5:  {"true centrist, politically disengaged", "wishy-washy, avoids taking strong stances, 'just asking questions'", "I don't know, seems like, maybe, who's to say"},
	6:  {"moderate conservative, small business owner type", "practical, mentions freedom/liberty, worried about overreach", "government overreach, free market, personal responsibility"},
	7:  {"traditional conservative, religious undertones", "values-based arguments, mentions tradition/family", "traditional values, what this country was built on, common sense"},
	8:  {"libertarian-leaning, very anti-regulation", "focuses on individual liberty, anti-government", "NAP, taxation is theft, voluntary association, free to choose"},
	9:  {"populist right, conspiracy-minded", "distrusts elites, mentions deep state/globalists, us vs them", "wake up, they don't want you to know, globalist agenda, real Americans"},
	10: {"far-right, possibly alt-right", "aggressive, culture war focused, anti-woke", "woke mob, cultural marxism, degeneracy, based"},
}

type ideology struct {
	label    string
	position int
	markers  string
}

// ideologies covers the broad named spectrum with an approximate left-right
// coordinate (1 far left, 10 far right).
var ideologies = []ideology{
	{"Anarchist", 1, "mutual aid, anti-state, horizontal, direct action"},
	{"Democratic Socialist", 2, "worker power, public ownership, solidarity"},
	{"Social Democrat", 3, "welfare state, unions, social safety net"},
	{"Green / Eco-social", 3, "climate justice, sustainability, environmental protections"},
	{"Progressive", 3, "equity, accountability, systemic bias"},
	{"Liberal", 4, "civil rights, evidence-based policy, inclusion"},
	{"Centrist", 5, "pragmatic, middle ground, bipartisan"},
	{"Left-Libertarian", 4, "decentralization, community autonomy, consent"},
	{"Libertarian", 7, "small government, free association, non-aggression"},
	{"Technocrat", 5, "evidence-driven, expertise, institutional capacity"},
	{"Communitarian", 5, "social cohesion, shared norms, local institutions"},
	{"Conservative", 7, "limited government, tradition, personal responsibility"},
	{"Traditionalist Conservative", 8, "family values, heritage, order"},
	{"Religious Conservative", 8, "faith, morality, community standards"},
	{"Neoconservative", 7, "strong defense, American leadership, stability"},
	{"Paleoconservative", 8, "tradition, national identity, restrained government"},
	{"Nationalist", 9, "sovereignty, borders, national interest"},
	{"Populist Left", 3, "the people vs elites, corporate greed, fairness"},
	{"Populist Right", 9, "elites, globalists, protect our own"},
	{"Authoritarian Left", 2, "state capacity, redistribution, regulation"},
	{"Authoritarian Right", 9, "law and order, national unity, hierarchy"},
}

var styleVariations = []string{
	"Be extremely opinionated and dismissive of other views.",
	"Sound tired and cynical about the whole topic.",
	"Be passionate and fired up, like you're arguing at a bar.",
	"Sound like you're explaining to a friend who asked your opinion.",
	"Be sarcastic and mocking toward the opposing view.",
	"Sound uncertain but leaning one way.",
	"Be absolutely convinced you're right and everyone else is an idiot.",
}

// sampleRow draws personas (or spectrum positions) for the three questions
// and builds their prompts.
func sampleRow(mode string, rowIdx int, rng *rand.Rand) (record, [3]string) {
	rec := record{Row: rowIdx + 1}
	var prompts [3]string
	slots := [3]*questionSlot{&rec.Q1, &rec.Q2, &rec.Q3}

	if mode == "ideology" {
		picks := rng.Perm(len(ideologies))[:3]
		for q, slot := range slots {
			ideol := ideologies[picks[q]]
			slot.Question = questions[q]
			slot.Ideology = ideol.label
			slot.Position = ideol.position
			prompts[q] = buildIdeologyPrompt(questions[q], ideol, rng)
		}
		return rec, prompts
	}

	positions := rng.Perm(10)[:3]
	for q, slot := range slots {
		pos := positions[q] + 1
		slot.Question = questions[q]
		slot.Position = pos
		prompts[q] = buildSpectrumPrompt(questions[q], pos, rng)
	}
	return rec, prompts
}

func buildSpectrumPrompt(question string, position int, rng *rand.Rand) string {
	p := spectrumPersonas[position]
	style := styleVariations[rng.Intn(len(styleVariations))]
	return fmt.Sprintf(
		"You are a %s. Political position: %d/10.\n"+
			"Speech pattern: %s\n"+
			"Use these markers naturally: %s\n"+
			"Style: %s\n\n"+
			"Answer this question as this person would, in their natural voice:\n%s\n\n"+
			"CRITICAL: Maximum 3 sentences. Be concise and punchy.\n"+
			"Remember: No AI disclaimers, no 'as a X', just answer like this real person would.",
		p.identity, position, p.speech, p.markers, style, question)
}

func buildIdeologyPrompt(question string, ideol ideology, rng *rand.Rand) string {
	pos := ideol.position
	if pos < 1 {
		pos = 1
	}
	if pos > 10 {
		pos = 10
	}
	style := styleVariations[rng.Intn(len(styleVariations))]
	return fmt.Sprintf(
		"You are roleplaying a %s (approx. spectrum %d/10).\n"+
			"Speak with natural, everyday language.\n"+
			"Use hints relevant to this ideology: %s\n"+
			"Style: %s\n\n"+
			"Answer this question as this person would, in their natural voice:\n%s\n\n"+
			"CRITICAL: Maximum 3 sentences. Be concise and punchy.\n"+
			"Remember: No AI disclaimers, no 'as a X', just answer like this real person would.",
		ideol.label, pos, ideol.markers, style, question)
}
