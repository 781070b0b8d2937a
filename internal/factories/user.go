package factories

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/jaswdr/faker"
	"github.com/sanmarzano/orderbot/internal/models"
)

var fake = faker.New()

// CustomerFactory generates fake customer profiles for local testing so
// the bot has returning-customer data to greet and prefill with.
type CustomerFactory struct{}

func (cf *CustomerFactory) CreateCustomer() *models.Customer {
	now := time.Now()
	created := now.AddDate(0, 0, -rand.Intn(180))
	return &models.Customer{
		PhoneNumber: fmt.Sprintf("519%08d", rand.Intn(100000000)),
		Name:        fake.Person().FirstName(),
		Email:       fake.Internet().Email(),
		Address: models.AddressMeta{
			Text: fmt.Sprintf("%s %d", fake.Address().StreetName(), rand.Intn(1500)+1),
			Location: &models.Location{
				Lat: -12.0464 + (rand.Float64()-0.5)*0.1,
				Lng: -77.0428 + (rand.Float64()-0.5)*0.1,
			},
		}.Encode(),
		CreatedAt: created,
		UpdatedAt: created,
	}
}
