// Package simulation replays user behavior against a real plant on a
// virtual clock, so hours of desk time run in milliseconds.
//
// The simulation exercises the real monitor, personality engine and plant
// coordinator with an in-memory store; no component is mocked. Scenarios are
// sequences of phases (present and still, moving, away, asleep) and may have
// a simulated user who reacts to reminders after a delay. Results capture
// every message and interaction event for property-based assertions.
//
// Usage:
//
//	func TestWorkday(t *testing.T) {
//	    result, err := simulation.Run(simulation.Scenario{
//	        Name:         "workday",
//	        RespondAfter: 2 * time.Minute,
//	        Phases: []simulation.Phase{
//	            {Label: "morning", For: 4 * time.Hour, Present: true},
//	        },
//	    })
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    simulation.AssertNoRepeatWithin(t, result, models.CategoryHydration, 15*time.Minute)
//	}
//
// Scenarios can also be loaded from YAML (LoadScenario) or built from a
// recorded JSONL sensor log (Replay).
package simulation
