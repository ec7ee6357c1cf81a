package recommend_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Fyuan0206/SelfAgent/pkg/affect"
	"github.com/Fyuan0206/SelfAgent/pkg/config"
	"github.com/Fyuan0206/SelfAgent/pkg/llm"
	"github.com/Fyuan0206/SelfAgent/pkg/matcher"
	"github.com/Fyuan0206/SelfAgent/pkg/recommend"
	"github.com/Fyuan0206/SelfAgent/pkg/skills"
)

// stubLLM is a controllable llm.Client.
type stubLLM struct {
	reason    string
	reasonErr error
	names     []string
	namesErr  error

	reasonCalls int
	edgeCalls   int
}

func (s *stubLLM) GenerateReason(_ context.Context, _ llm.ReasonRequest) (string, error) {
	s.reasonCalls++
	return s.reason, s.reasonErr
}

func (s *stubLLM) ClassifyEdgeCase(_ context.Context, _ llm.EdgeCaseRequest) ([]string, error) {
	s.edgeCalls++
	return s.names, s.namesErr
}

var _ = Describe("Recommendation engine", func() {
	var (
		store *skills.MemoryStore
		cfg   config.RecommendationConfig
	)

	anxiousRequest := func() matcher.MatchRequest {
		return matcher.MatchRequest{
			Emotions: affect.EmotionVector{
				Emotions: map[string]float64{affect.EmotionAnxiety: 0.7},
				Arousal:  0.8,
			},
			Signals:   affect.TriggerSignals{AgitationLevel: 0.5},
			Context:   "exam stress",
			RiskLevel: affect.RiskMedium,
		}
	}

	newEngine := func(client llm.Client) *recommend.Engine {
		m := matcher.NewEngine(store, cfg)
		return recommend.NewEngine(store, m, client, cfg)
	}

	BeforeEach(func() {
		store = skills.NewMemoryStore()
		Expect(skills.Seed(context.Background(), store)).To(Succeed())
		cfg = config.DefaultConfig().Recommendation
	})

	Describe("with a matching rule", func() {
		It("recommends TIPP for a high-arousal anxious state", func() {
			rec, err := newEngine(nil).Recommend(context.Background(), anxiousRequest(), 0.5)
			Expect(err).NotTo(HaveOccurred())

			Expect(rec.RecommendedModule).To(Equal("Distress Tolerance"))
			Expect(rec.RecommendedSkills).NotTo(BeEmpty())
			names := []string{}
			for _, sk := range rec.RecommendedSkills {
				names = append(names, sk.SkillNameEN)
			}
			Expect(names).To(ContainElement("TIPP"))
			Expect(rec.Metadata).To(HaveKeyWithValue("risk_level", "MEDIUM"))
			Expect(rec.Metadata).To(HaveKey("matched_rules"))
		})

		It("uses the model-written reason when the call succeeds", func() {
			client := &stubLLM{reason: "a warm custom explanation"}
			rec, err := newEngine(client).Recommend(context.Background(), anxiousRequest(), 0.5)
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.Reason).To(Equal("a warm custom explanation"))
			Expect(client.reasonCalls).To(Equal(1))
		})

		It("falls back to a template reason when the model fails", func() {
			client := &stubLLM{reasonErr: errors.New("connection refused")}
			rec, err := newEngine(client).Recommend(context.Background(), anxiousRequest(), 0.5)
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.Reason).NotTo(BeEmpty())
			Expect(rec.Reason).To(ContainSubstring("TIPP"))
		})

		It("uses the simple template when LLM reasons are disabled", func() {
			cfg.EnableLLMReason = false
			client := &stubLLM{reason: "should not be used"}
			rec, err := newEngine(client).Recommend(context.Background(), anxiousRequest(), 0.5)
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.Reason).To(ContainSubstring("TIPP"))
			Expect(client.reasonCalls).To(BeZero())
		})
	})

	Describe("edge-case handling", func() {
		quietRequest := func() matcher.MatchRequest {
			// Arousal sits between the low-arousal and high-arousal rule
			// bars and the strongest emotion is below the fallback floor:
			// nothing for the rules or the emotion fallback to work with.
			return matcher.MatchRequest{
				Emotions: affect.EmotionVector{
					Emotions: map[string]float64{affect.EmotionNumbness: 0.25},
					Arousal:  0.5,
				},
				RiskLevel: affect.RiskLow,
			}
		}

		It("resolves model-suggested skill names against the catalog", func() {
			client := &stubLLM{names: []string{"STOP", "unknown skill"}}
			rec, err := newEngine(client).Recommend(context.Background(), quietRequest(), 0.2)
			Expect(err).NotTo(HaveOccurred())

			Expect(client.edgeCalls).To(Equal(1))
			Expect(rec.RecommendedSkills).To(HaveLen(1))
			Expect(rec.RecommendedSkills[0].SkillNameEN).To(Equal("STOP"))
			Expect(rec.RecommendedSkills[0].MatchScore).To(Equal(0.5))
			Expect(rec.Metadata["matched_rules"]).To(Equal([]string{"llm_edge_case"}))
		})

		It("degrades to the default recommendation when the model fails", func() {
			client := &stubLLM{namesErr: errors.New("timeout"), reasonErr: errors.New("timeout")}
			rec, err := newEngine(client).Recommend(context.Background(), quietRequest(), 0.2)
			Expect(err).NotTo(HaveOccurred())

			// Low risk and low arousal default to Observe.
			Expect(rec.RecommendedSkills).To(HaveLen(1))
			Expect(rec.RecommendedSkills[0].SkillNameEN).To(Equal("Observe"))
			Expect(rec.Metadata["matched_rules"]).To(Equal([]string{"default_fallback"}))
			Expect(rec.Reason).NotTo(BeEmpty())
		})

		It("defaults to TIPP under high risk without any match", func() {
			cfg.EnableLLMFallback = false
			req := quietRequest()
			req.RiskLevel = affect.RiskHigh
			rec, err := newEngine(nil).Recommend(context.Background(), req, 0.8)
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.RecommendedSkills).To(HaveLen(1))
			Expect(rec.RecommendedSkills[0].SkillNameEN).To(Equal("TIPP"))
		})
	})

	Describe("guidance strategy", func() {
		It("prioritizes safety in a critical state", func() {
			req := anxiousRequest()
			req.RiskLevel = affect.RiskCritical
			rec, err := newEngine(nil).Recommend(context.Background(), req, 0.9)
			Expect(err).NotTo(HaveOccurred())

			Expect(rec.Strategy.Approach).To(Equal(recommend.EmpathyFirst))
			Expect(rec.Strategy.Intensity).To(Equal(recommend.CrisisPriority))
			Expect(rec.Strategy.KeyPoints).NotTo(BeEmpty())
			Expect(rec.Strategy.KeyPoints[0]).To(Equal("confirm the user's safety"))
			Expect(len(rec.Strategy.KeyPoints)).To(BeNumerically("<=", 5))
		})

		It("uses a calm tone under high arousal even at high risk", func() {
			req := anxiousRequest()
			req.RiskLevel = affect.RiskHigh
			req.Emotions.Arousal = 0.9
			rec, err := newEngine(nil).Recommend(context.Background(), req, 0.9)
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.Strategy.Tone).To(Equal(recommend.ToneCalm))
			Expect(rec.Strategy.Intensity).To(Equal(recommend.StandardTraining))
		})

		It("uses a warm tone at high risk with low arousal", func() {
			req := anxiousRequest()
			req.RiskLevel = affect.RiskHigh
			req.Emotions.Arousal = 0.3
			rec, err := newEngine(nil).Recommend(context.Background(), req, 0.5)
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.Strategy.Tone).To(Equal(recommend.ToneWarm))
		})

		It("turns skill-oriented under high urgency at moderate risk", func() {
			req := anxiousRequest()
			req.Emotions.Arousal = 0.5
			rec, err := newEngine(nil).Recommend(context.Background(), req, 0.8)
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.Strategy.Approach).To(Equal(recommend.SkillOriented))
			Expect(rec.Strategy.Tone).To(Equal(recommend.ToneEncouraging))
		})
	})
})
